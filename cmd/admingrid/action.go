package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-admingrid/pkg/request"
)

var (
	actionWidget string
	actionKey    string
	actionIDs    []string
	actionBulk   bool
	actionYes    bool
)

var actionCmd = &cobra.Command{
	Use:   "action",
	Short: "Run a widget action against selected records",
	Example: `  admingrid action --widget patients --key delete --bulk --ids 3,4`,
	RunE: runAction,
}

func init() {
	actionCmd.Flags().StringVarP(&actionWidget, "widget", "w", "", "Widget id")
	actionCmd.Flags().StringVarP(&actionKey, "key", "k", "", "Action key")
	actionCmd.Flags().StringSliceVar(&actionIDs, "ids", nil, "Record ids")
	actionCmd.Flags().BoolVar(&actionBulk, "bulk", false, "Dispatch as a bulk action")
	actionCmd.Flags().BoolVarP(&actionYes, "yes", "y", false, "Skip confirmation prompts")
	_ = actionCmd.MarkFlagRequired("widget")
	_ = actionCmd.MarkFlagRequired("key")
}

func runAction(cmd *cobra.Command, args []string) error {
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
	w, err := findWidget(widgets, actionWidget)
	if err != nil {
		return err
	}
	declared, ok := w.Action(actionKey)
	if !ok {
		return fmt.Errorf("widget %s has no action %q", w.ID(), actionKey)
	}
	if declared.Confirm != "" && !actionYes {
		proceed, err := confirm(fmt.Sprintf("%s (%s)", declared.Confirm, strings.Join(actionIDs, ", ")))
		if err != nil {
			return err
		}
		if !proceed {
			fmt.Fprintln(cmd.ErrOrStderr(), "aborted")
			return nil
		}
	}

	params := request.Params{}
	name := request.ParamAction
	if actionBulk {
		name = request.ParamBulk
	}
	params.Set(request.Key(w.ID(), name), actionKey)
	params.Set(request.Key(w.ID(), request.ParamIDs), strings.Join(actionIDs, ","))

	resp, err := w.Serve(ctx, params)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp.Outcome); err != nil {
		return err
	}
	if resp.Outcome != nil && resp.Outcome.Err != nil {
		return resp.Outcome.Err
	}
	return nil
}

func confirm(message string) (bool, error) {
	var out bool
	prompt := &survey.Confirm{Message: message}
	if err := survey.AskOne(prompt, &out); err != nil {
		if errors.Is(err, terminal.InterruptErr) {
			return false, nil
		}
		return false, err
	}
	return out, nil
}
