/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"gocanvas/internal/config"
	"gocanvas/internal/crash"
	"gocanvas/internal/editor"
	applog "gocanvas/internal/log"
	"gocanvas/internal/scene"
	"gocanvas/internal/script"
	"gocanvas/internal/surface"
	"gocanvas/internal/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "gocanvas %s\n", version.String())
			return err
		},
	}
}

func newRunCmd(app *App) *cobra.Command {
	var (
		dsn       string
		sessionID string
		autosave  bool
	)
	cmd := &cobra.Command{
		Use:   "run <script.yaml>",
		Short: "Replay an editing script on a fresh canvas",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			opts, err := app.sessionOptions()
			if err != nil {
				return err
			}
			opts.ID = sessionID
			if autosave || app.Cfg.Storage.Autosave || dsn != "" {
				db, err := app.openDB(ctx, dsn)
				if err != nil {
					return err
				}
				defer func() { _ = db.Close() }()
				opts.Saver = db
			}

			sess := editor.New(surface.NewHeadless(), opts)
			defer sess.Close()
			defer crash.Recover(sess, "")

			ctx = applog.ContextWithSession(ctx, sess.ID)
			started := time.Now()
			results, err := script.RunFile(ctx, sess, args[0])
			if err != nil {
				return err
			}
			app.log.InfoContext(ctx, "script finished", slog.Int("steps", len(results)), slog.Duration("took", time.Since(started)))

			out := cmd.OutOrStdout()
			for _, r := range results {
				state := "ok"
				if !r.Applied {
					state = "noop"
				}
				fmt.Fprintf(out, "%-4s %s\n", state, r.Step)
			}
			printSession(out, sess)
			return nil
		},
	}
	cmd.Flags().StringVar(&dsn, "db", "", "Snapshot store (sqlite path or postgres URL); enables autosave")
	cmd.Flags().StringVar(&sessionID, "session", "", "Session id (default: random)")
	cmd.Flags().BoolVar(&autosave, "autosave", false, "Save every committed state to the snapshot store")
	return cmd
}

func newHistoryCmd(app *App) *cobra.Command {
	var (
		sessionID string
		limit     int
	)
	cmd := &cobra.Command{
		Use:   "history [db]",
		Short: "List autosaved sessions, or the snapshots of one session",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := app.openDB(ctx, firstArg(args))
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			out := cmd.OutOrStdout()
			if sessionID == "" {
				infos, err := db.Sessions(ctx)
				if err != nil {
					return err
				}
				for _, s := range infos {
					fmt.Fprintf(out, "%s\t%d\t%s\n", s.ID, s.Snapshots, s.LastSaved.Format(time.RFC3339))
				}
				return nil
			}
			recs, err := db.List(ctx, sessionID, limit)
			if err != nil {
				return err
			}
			for _, r := range recs {
				fmt.Fprintf(out, "%d\t%s\t%d bytes\n", r.ID, r.TS.Format(time.RFC3339Nano), len(r.Blob))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "Show the snapshots of this session")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum snapshots to list (0 means all)")
	return cmd
}

func newRecoverCmd(app *App) *cobra.Command {
	var (
		sessionID string
		outPath   string
	)
	cmd := &cobra.Command{
		Use:   "recover [db]",
		Short: "Restore the last saved scene of a session",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := app.openDB(ctx, firstArg(args))
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			rec, err := db.Latest(ctx, sessionID)
			if err != nil {
				return err
			}
			if err := scene.ValidateSnapshot(rec.Blob); err != nil {
				return fmt.Errorf("snapshot %d: %w", rec.ID, err)
			}
			opts, err := app.sessionOptions()
			if err != nil {
				return err
			}
			opts.ID = rec.SessionID
			sess := editor.New(surface.NewHeadless(), opts)
			defer sess.Close()
			if err := sess.Load(ctx, rec.Blob); err != nil {
				return err
			}
			if outPath != "" {
				if err := os.WriteFile(outPath, rec.Blob, 0o644); err != nil {
					return err
				}
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "recovered snapshot %d of session %s saved %s\n", rec.ID, rec.SessionID, rec.TS.Format(time.RFC3339))
			printSession(out, sess)
			return nil
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "Session to recover (default: most recently saved)")
	cmd.Flags().StringVar(&outPath, "out", "", "Also write the snapshot JSON to this file")
	return cmd
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(app.Cfg); err != nil {
				return err
			}
			return enc.Close()
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "keys",
		Short: "List config keys and their environment overrides",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, k := range config.Keys() {
				env, _ := config.EnvOverrideFor(k)
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", k, env)
			}
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write the defaults to the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := app.ConfigPath
			if path == "" {
				p, err := config.ConfigPath()
				if err != nil {
					return err
				}
				path = p
			}
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := config.Save(path, config.Defaults()); err != nil {
				return err
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "wrote", path)
			return err
		},
	})
	return cmd
}

func printSession(out io.Writer, sess *editor.Session) {
	fmt.Fprintln(out, "layers (top first):")
	for _, r := range sess.Layers.Rows() {
		mark := " "
		if r.Selected {
			mark = "*"
		}
		fmt.Fprintf(out, "  %s %d %-6s %s\n", mark, r.Position, r.Kind, r.Label)
	}
	st := sess.History.Stats()
	fmt.Fprintf(out, "history: undo=%d redo=%d bytes=%d\n", st.UndoDepth, st.RedoDepth, st.Bytes)
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
