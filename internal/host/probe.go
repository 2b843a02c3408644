package host

import (
	"context"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// Reachability checks that a package source can be fetched before anything is removed.
type Reachability interface {
	Probe(ctx context.Context, source string, timeout time.Duration) bool
}

// HTTPProbe sends a HEAD request to http(s) sources and stats local paths.
// Sources with other schemes (ftp) cannot be probed and are assumed reachable.
type HTTPProbe struct {
	// Client is copied per probe so the timeout does not leak; nil uses http.DefaultClient.
	Client *http.Client
	Log    logrus.FieldLogger
}

// Probe reports whether source answers within timeout.
func (p HTTPProbe) Probe(ctx context.Context, source string, timeout time.Duration) bool {
	log := p.Log.WithField("source", source)
	u, err := url.Parse(source)
	if err != nil || u.Scheme == "" || u.Scheme == "file" {
		path := source
		if err == nil && u.Scheme == "file" {
			path = u.Path
		}
		if _, err := os.Stat(path); err != nil {
			log.WithError(err).Warn("package source not found")
			return false
		}
		return true
	}

	switch u.Scheme {
	case "http", "https":
	default:
		log.Warn("cannot probe package source scheme; assuming reachable")
		return true
	}

	client := http.DefaultClient
	if p.Client != nil {
		client = p.Client
	}
	probeClient := *client
	probeClient.Timeout = timeout

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, source, nil)
	if err != nil {
		log.WithError(err).Warn("invalid package source")
		return false
	}
	resp, err := probeClient.Do(req)
	if err != nil {
		log.WithError(err).Warn("package source unreachable")
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		log.WithField("status", resp.Status).Warn("package source answered with an error")
		return false
	}
	log.WithField("status", resp.Status).Debug("package source reachable")
	return true
}
