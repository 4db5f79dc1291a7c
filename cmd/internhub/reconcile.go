// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"

	"github.com/blinklabs-io/internhub/internal/config"
	"github.com/blinklabs-io/internhub/internal/hub"
	"github.com/blinklabs-io/internhub/ledger"
	"github.com/spf13/cobra"
)

func reconcileRun(
	ctx context.Context,
	out io.Writer,
	args []string,
	cfg *config.Config,
) error {
	var postingId string
	if len(args) > 0 {
		postingId = args[0]
	}
	logger := commonRun()
	results, err := hub.Reconcile(ctx, cfg, logger, postingId)
	if results == nil {
		results = []ledger.ReconcileResult{}
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(results); encErr != nil && err == nil {
		err = encErr
	}
	return err
}

func reconcileCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile [posting-id]",
		Short: "Recount occupied seats and repair stored seat counts",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cfg := config.FromContext(cmd.Context())
			if cfg == nil {
				slog.Error("no config found in context")
				os.Exit(1)
			}
			if err := reconcileRun(cmd.Context(), cmd.OutOrStdout(), args, cfg); err != nil {
				slog.Error(err.Error())
				os.Exit(1)
			}
		},
	}
	return cmd
}
