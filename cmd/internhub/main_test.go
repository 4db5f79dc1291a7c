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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListPlugins(t *testing.T) {
	shouldExit, output := listPlugins("list", "sqlite")
	assert.True(t, shouldExit)
	assert.Contains(t, output, "Available blob plugins:")
	assert.Contains(t, output, "badger")
	assert.NotContains(t, output, "metadata plugins")

	shouldExit, output = listPlugins("badger", "list")
	assert.True(t, shouldExit)
	assert.Contains(t, output, "sqlite")
	assert.Contains(t, output, "postgres")

	shouldExit, output = listPlugins("badger", "sqlite")
	assert.False(t, shouldExit)
	assert.Empty(t, output)
}

func TestListAllPlugins(t *testing.T) {
	output := listAllPlugins()
	for _, name := range []string{"badger", "s3", "gcs", "sqlite", "postgres", "mysql"} {
		assert.Contains(t, output, name)
	}
	assert.Less(
		t,
		strings.Index(output, "Blob Storage Plugins"),
		strings.Index(output, "Metadata Storage Plugins"),
	)
}

func TestRootCommandSubcommands(t *testing.T) {
	rootCmd := newRootCommand()
	for _, name := range []string{"serve", "reconcile", "list", "version"} {
		cmd, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("blob"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("metadata"))
}
