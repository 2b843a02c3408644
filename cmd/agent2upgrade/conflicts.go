package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conn-castle/agent2upgrade/internal/conflict"
	"github.com/conn-castle/agent2upgrade/internal/messages"
)

// conflictReport is the json/yaml shape of a conflicts run.
type conflictReport struct {
	Config   string       `json:"config" yaml:"config"`
	Conflict bool         `json:"conflict" yaml:"conflict"`
	Files    []fileReport `json:"files" yaml:"files"`
}

type fileReport struct {
	Path      string   `json:"path" yaml:"path"`
	Included  bool     `json:"included" yaml:"included"`
	Names     []string `json:"names" yaml:"names"`
	Colliding []string `json:"colliding,omitempty" yaml:"colliding,omitempty"`
}

func newConflictsCmd(flags *globalFlags) *cobra.Command {
	var format, path string
	cmd := &cobra.Command{
		Use:   messages.ConflictsUse,
		Short: messages.ConflictsShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch format {
			case "text", "json", "yaml":
			default:
				return fmt.Errorf(messages.ConflictsFormatInvalidFmt, format)
			}
			opts, err := flags.options(cmd)
			if err != nil {
				return err
			}
			if path == "" {
				path = opts.Settings.Agent2.Config
			}

			builtins := conflict.Builtins()
			found, m, err := conflict.Find(opts.System, path, builtins, opts.Log)
			if err != nil {
				return err
			}
			report := buildConflictReport(path, found, m, builtins)

			out := cmd.OutOrStdout()
			switch format {
			case "json":
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				err = encoder.Encode(report)
			case "yaml":
				encoder := yaml.NewEncoder(out)
				encoder.SetIndent(2)
				err = encoder.Encode(report)
				if err == nil {
					err = encoder.Close()
				}
			default:
				renderConflictText(out, report)
			}
			if err != nil {
				return err
			}
			if found {
				return &SilentExitError{Code: 1}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", messages.ConflictsFlagFormat)
	cmd.Flags().StringVar(&path, "path", "", messages.ConflictsFlagPath)
	return cmd
}

func buildConflictReport(path string, found bool, m conflict.Map, builtins conflict.NameSet) conflictReport {
	report := conflictReport{Config: path, Conflict: found, Files: []fileReport{}}
	for _, f := range m {
		fr := fileReport{
			Path:     f.Identity.Path,
			Included: f.Identity.Kind == conflict.IncludedConfig,
			Names:    append([]string{}, f.Names...),
		}
		for _, name := range f.Names {
			if builtins.Has(name) {
				fr.Colliding = append(fr.Colliding, name)
			}
		}
		report.Files = append(report.Files, fr)
	}
	return report
}

func renderConflictText(out io.Writer, report conflictReport) {
	for _, f := range report.Files {
		label := f.Path
		if !f.Included {
			label = conflict.Self(f.Path).String()
		}
		_, _ = fmt.Fprintf(out, messages.ConflictsFileFmt, label)
		colliding := make(map[string]bool, len(f.Colliding))
		for _, name := range f.Colliding {
			colliding[name] = true
		}
		for _, name := range f.Names {
			if colliding[name] {
				_, _ = fmt.Fprint(out, color.RedString(messages.ConflictsCollidingNameFmt, name))
				continue
			}
			_, _ = fmt.Fprintf(out, messages.ConflictsNameFmt, name)
		}
	}
	if report.Conflict {
		_, _ = fmt.Fprint(out, color.RedString(messages.ConflictsFoundFmt, report.Config))
		return
	}
	_, _ = fmt.Fprint(out, color.GreenString(messages.ConflictsNoneFmt, report.Config))
}
