package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"c2papreview/internal/config"
	"c2papreview/internal/ingress"
	"c2papreview/internal/logger"
)

//go:embed all:frontend/dist
var assets embed.FS

const appID = "org.c2pa.preview"

// main 是应用入口
func main() {
	if err := newRootCommand().Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// commandContext 子命令共享的配置与日志
type commandContext struct {
	configPath string
	cfg        *config.Config
	log        logger.Logger
}

func (c *commandContext) load() (*config.Config, logger.Logger, error) {
	if c.cfg != nil {
		return c.cfg, c.log, nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, nil, err
	}
	c.cfg = cfg
	c.log = logger.New(cfg)
	return c.cfg, c.log, nil
}

func newRootCommand() *cobra.Command {
	cc := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "c2pa-preview [file]",
		Short:         "Preview C2PA content credentials",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGUI(cc, ingress.FirstPathArg(args))
		},
	}
	rootCmd.PersistentFlags().StringVarP(&cc.configPath, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newInspectCommand(cc))
	rootCmd.AddCommand(newReportCommand(cc))
	return rootCmd
}

// runGUI 启动 Wails 窗口，initialPath 为命令行或文件关联传入的文件
func runGUI(cc *commandContext, initialPath string) error {
	cfg, l, err := cc.load()
	if err != nil {
		return err
	}
	e, err := newEngine(cfg, l)
	if err != nil {
		return err
	}
	app := NewApp(cfg, e, l, initialPath)

	l.Info("启动界面", "width", cfg.Window.Width, "height", cfg.Window.Height, "initialPath", initialPath)
	return wails.Run(&options.App{
		Title:         "C2PA Preview",
		Width:         cfg.Window.Width,
		Height:        cfg.Window.Height,
		DisableResize: true,
		AssetServer:   &assetserver.Options{Assets: assets},
		OnStartup:     app.startup,
		OnShutdown:    app.shutdown,
		Bind:          []interface{}{app},
		DragAndDrop:   &options.DragAndDrop{EnableFileDrop: true},
		SingleInstanceLock: &options.SingleInstanceLock{
			UniqueId:               appID,
			OnSecondInstanceLaunch: app.onSecondInstance,
		},
	})
}
