/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"sidebarlayout/internal/archive"
	"sidebarlayout/internal/config"
	applog "sidebarlayout/internal/log"
	"sidebarlayout/internal/replay"
	"sidebarlayout/internal/ui"
	"sidebarlayout/internal/version"
)

// errExpectations marks a replay whose expectations did not hold; the
// report has already been printed.
var errExpectations = errors.New("replay expectations failed")

type appState struct {
	configFlag string
	logLevel   string
	cfg        config.AppConfig
	cfgPath    string
}

func newRootCmd() *cobra.Command {
	st := &appState{}
	root := &cobra.Command{
		Use:           "sidebarlayout",
		Short:         "Two-panel drawer layout driven by edge swipes",
		Long:          "sidebarlayout hosts a content area with sliding left and right panels and replays scripted\ntouch sequences against the drawer state machine.",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return st.load(cmd)
		},
	}
	root.SetVersionTemplate("{{.Version}}\n")
	root.PersistentFlags().StringVar(&st.configFlag, "config", "", "config file (default is the per-user config path, or $"+config.EnvConfigPath+")")
	root.PersistentFlags().StringVar(&st.logLevel, "log-level", "", "override the log level (debug, info, warn, error)")

	root.AddCommand(
		newVersionCmd(),
		newUICmd(st),
		newReplayCmd(),
		newHistoryCmd(st),
		newConfigCmd(st),
	)
	return root
}

// load resolves the config and initializes logging from it.
func (st *appState) load(cmd *cobra.Command) error {
	var err error
	if st.configFlag != "" {
		st.cfgPath = st.configFlag
		st.cfg, err = config.LoadFrom(st.configFlag)
	} else {
		st.cfg, st.cfgPath, err = config.Load()
	}
	if st.logLevel != "" {
		st.cfg.Logging.Level = st.logLevel
	}
	applog.Init(applog.Options{
		Level:     st.cfg.Logging.Level,
		Format:    st.cfg.Logging.Format,
		AddSource: st.cfg.Logging.Source,
		File:      st.cfg.Logging.File,
		Console:   cmd.ErrOrStderr(),
	})
	l := applog.WithComponent("cli")
	if err != nil {
		// a broken config file should not keep the replay or config commands from working
		l.Warn("config not loaded, using defaults", slog.Any("err", err))
	}
	l.Debug("start", slog.String("cmd", cmd.CommandPath()), slog.String("config", st.cfgPath))
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}

func newUICmd(st *appState) *cobra.Command {
	return &cobra.Command{
		Use:   "ui",
		Short: "Launch the desktop UI (build with -tags fyne)",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := st.cfg.Validate(); err != nil {
				return err
			}
			return ui.Run(ui.Options{Config: st.cfg, ConfigPath: st.cfgPath})
		},
	}
}

func newReplayCmd() *cobra.Command {
	var format, target string
	cmd := &cobra.Command{
		Use:   "replay <script.yaml>...",
		Short: "Replay scripted toggles and touches and report the drawer state per step",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var arc *archive.Archive
			if target != "" {
				var err error
				if arc, err = archive.Open(cmd.Context(), target); err != nil {
					return err
				}
				defer arc.Close()
			}
			failed := 0
			for _, path := range args {
				s, err := replay.Load(path)
				if err != nil {
					return err
				}
				res, err := replay.Run(cmd.Context(), s)
				if err != nil {
					return err
				}
				if err := replay.Write(cmd.OutOrStdout(), res, format); err != nil {
					return err
				}
				if arc != nil {
					if _, err := arc.Save(cmd.Context(), res); err != nil {
						return err
					}
				}
				if res.Failed() {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%w in %d of %d script(s)", errExpectations, failed, len(args))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", replay.FormatTable, "output format: table or json")
	cmd.Flags().StringVar(&target, "archive", "", "also store results in this SQLite file or postgres:// database")
	return cmd
}

func newHistoryCmd(st *appState) *cobra.Command {
	var (
		target, script string
		limit, prune   int
		show           int64
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List archived replay runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if target == "" {
				target = archive.DefaultPath(st.cfgPath)
			}
			arc, err := archive.Open(cmd.Context(), target)
			if err != nil {
				return err
			}
			defer arc.Close()
			out := cmd.OutOrStdout()

			switch {
			case cmd.Flags().Changed("prune"):
				n, err := arc.Prune(cmd.Context(), prune)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(out, "removed %d run(s)\n", n)
				return nil
			case show > 0:
				trs, err := arc.Transitions(cmd.Context(), show)
				if err != nil {
					return err
				}
				t := table.NewWriter()
				t.SetOutputMirror(out)
				t.SetStyle(table.StyleLight)
				t.SetTitle(fmt.Sprintf("run %d", show))
				t.AppendHeader(table.Row{"Step", "Kind", "Side", "Cause", "Offset", "Opacity"})
				for _, tr := range trs {
					t.AppendRow(table.Row{tr.Step, tr.Kind, tr.Side, tr.Cause, tr.Offset, fmt.Sprintf("%.2f", tr.Opacity)})
				}
				t.Render()
				return nil
			}

			runs, err := arc.Runs(cmd.Context(), script, limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				_, _ = fmt.Fprintln(out, "no runs archived")
				return nil
			}
			t := table.NewWriter()
			t.SetOutputMirror(out)
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"ID", "Script", "When", "Steps", "Failures", "Final"})
			for _, r := range runs {
				t.AppendRow(table.Row{r.ID, r.Script, r.CreatedAt.Local().Format("2006-01-02 15:04:05"), r.Steps, r.Failures, r.Final})
			}
			t.Render()
			return nil
		},
	}
	cmd.Flags().StringVar(&target, "archive", "", "SQLite file or postgres:// database (default next to the config file)")
	cmd.Flags().StringVar(&script, "script", "", "only runs of this script name")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum runs to list (0 for all)")
	cmd.Flags().Int64Var(&show, "show", 0, "print the transitions of one run")
	cmd.Flags().IntVar(&prune, "prune", 0, "delete all but the newest N runs")
	return cmd
}

func newConfigCmd(st *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the configuration file",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), st.cfgPath)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration and its environment overrides",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := yaml.Marshal(st.cfg)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = out.Write(data)
			for _, o := range config.ActiveOverrides() {
				_, _ = fmt.Fprintf(out, "# %s overridden by %s\n", o.Key, o.Env)
			}
			return nil
		},
	})
	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := os.Stat(st.cfgPath); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", st.cfgPath)
			}
			if err := config.SaveTo(st.cfgPath, config.Defaults()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "wrote", st.cfgPath)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cmd.AddCommand(initCmd)
	return cmd
}
