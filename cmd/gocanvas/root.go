/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"gocanvas/internal/config"
	"gocanvas/internal/editor"
	"gocanvas/internal/history"
	applog "gocanvas/internal/log"
	"gocanvas/internal/snap"
	"gocanvas/internal/storage"
	"gocanvas/internal/telemetry"
	"gocanvas/internal/textlayout"
	"gocanvas/internal/vector"
)

// App carries the state shared by every command.
type App struct {
	ConfigPath string
	Cfg        config.AppConfig

	tel *telemetry.Provider
	log *slog.Logger
}

func newRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "gocanvas",
		Short:        "Headless vector canvas editor",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Replay an editing script and print the resulting layers
  gocanvas run edit.yaml

  # Autosave every committed state and inspect it later
  gocanvas run --autosave edit.yaml
  gocanvas history

  # Export the last saved scene of a session
  gocanvas recover --session <id> --out scene.json
`),
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(app.ConfigPath)
		if err != nil {
			return err
		}
		app.Cfg = cfg
		applog.Init(applog.Options{
			Level:     cfg.Logging.Level,
			Format:    cfg.Logging.Format,
			AddSource: cfg.Logging.Source,
			File:      cfg.Logging.File,
			Writer:    cmd.ErrOrStderr(),
		})
		app.log = applog.WithComponent("cli")
		app.tel, err = telemetry.Init(cmd.Context(), telemetry.Config{
			Enabled:     cfg.Telemetry.Enabled,
			Endpoint:    cfg.Telemetry.OTLPEndpoint,
			ServiceName: cfg.Telemetry.ServiceName,
		})
		if err != nil {
			// tracing is best effort
			app.log.Warn("telemetry init failed", slog.Any("err", err))
		}
		return nil
	}

	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		return errors.Join(app.tel.Shutdown(context.Background()), applog.Close())
	}

	cmd.PersistentFlags().StringVar(&app.ConfigPath, "config", "", "Path to config.yaml (default: user config dir)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newRunCmd(app))
	cmd.AddCommand(newHistoryCmd(app))
	cmd.AddCommand(newRecoverCmd(app))
	cmd.AddCommand(newConfigCmd(app))
	return cmd
}

// sessionOptions maps the configuration onto editor options.
func (app *App) sessionOptions() (editor.Options, error) {
	c := app.Cfg
	col, err := vector.ParseColor(c.Snap.GuideColor)
	if err != nil {
		return editor.Options{}, fmt.Errorf("snap.guide_color: %w", err)
	}
	measurer, err := app.measurer()
	if err != nil {
		return editor.Options{}, err
	}
	return editor.Options{
		Canvas:   vector.Size{W: c.Canvas.Width, H: c.Canvas.Height},
		Measurer: measurer,
		Snap: snap.Options{
			Threshold:     c.Snap.Threshold,
			Style:         snap.Style{Color: col, Width: c.Snap.GuideWidth, Dash: c.Snap.GuideDash},
			SnapToObjects: c.Snap.SnapToObjects,
		},
		History: history.Config{MaxDepth: c.History.MaxDepth, MaxBytes: c.History.MaxBytes},
	}, nil
}

// measurer loads the configured fonts. Without any, text is measured with
// the built-in bitmap face.
func (app *App) measurer() (*textlayout.Measurer, error) {
	fonts := app.Cfg.Text.Fonts
	if len(fonts) == 0 {
		return textlayout.NewMeasurer(nil), nil
	}
	lib := textlayout.NewFontLibrary()
	for _, f := range fonts {
		if err := lib.LoadTTF(f.Family, f.Bold, f.Italic, f.Path); err != nil {
			return nil, fmt.Errorf("text.fonts: %w", err)
		}
	}
	return textlayout.NewMeasurer(textlayout.OTProvider{Lib: lib, DPI: app.Cfg.Text.DPI}), nil
}

// openDB opens the snapshot store; dsn overrides the configured one.
func (app *App) openDB(ctx context.Context, dsn string) (*storage.DB, error) {
	if dsn == "" {
		dsn = app.Cfg.Storage.DSN
	}
	return storage.Open(ctx, storage.Config{
		Driver:   app.Cfg.Storage.Driver,
		DSN:      dsn,
		KeepLast: app.Cfg.Storage.KeepLast,
	})
}
