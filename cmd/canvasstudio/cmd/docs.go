/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"canvasstudio/internal/store"
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Stored document commands",
}

var docsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored documents, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := context.Background()
		st, err := store.Open(ctx, cfg.Storage)
		if err != nil {
			return err
		}
		defer st.Close()
		infos, err := st.List(ctx)
		if err != nil {
			return err
		}
		for _, in := range infos {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", in.ID, in.UpdatedAt.Local().Format(time.DateTime))
		}
		return nil
	},
}

var docsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a stored document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := context.Background()
		st, err := store.Open(ctx, cfg.Storage)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Delete(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Deleted", args[0])
		return nil
	},
}

func init() {
	docsCmd.AddCommand(docsListCmd, docsDeleteCmd)
	rootCmd.AddCommand(docsCmd)
}
