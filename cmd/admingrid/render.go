package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

var (
	renderWidget string
	renderParams []string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Print one widget response as JSON",
	Example: `  admingrid render --widget patients --param filter=status:active --param page=2`,
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVarP(&renderWidget, "widget", "w", "", "Widget id")
	renderCmd.Flags().StringArrayVarP(&renderParams, "param", "p", nil, "Request parameter name=value (repeatable)")
	_ = renderCmd.MarkFlagRequired("widget")
}

func runRender(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	db, err := openDB(ctx, dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	widgets, err := buildWidgets(ctx, os.DirFS(configDir), db, logger)
	if err != nil {
		return err
	}
	w, err := findWidget(widgets, renderWidget)
	if err != nil {
		return err
	}
	params, err := parseParams(w.ID(), renderParams)
	if err != nil {
		return err
	}
	resp, err := w.Serve(ctx, params)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}
