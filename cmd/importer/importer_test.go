package importer

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"kharnish/budgie/internal/container/containertest"
	"kharnish/budgie/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0600))
	return p
}

const checking = `Transaction Date,Description,Original Description,Amount,Account Name,Category
03/01/2024,Coffee Shop,COFFEE SHOP 123,-4.50,Checking,Dining
03/02/2024,Payroll,ACME PAYROLL,1500.00,Checking,Income
`

func TestRun(t *testing.T) {
	c, mem, _ := containertest.New(t)
	dir := t.TempDir()
	first := writeFile(t, dir, "checking.csv", checking)

	var out bytes.Buffer
	require.NoError(t, Run(context.Background(), c, []string{first, first}, "", &out))

	assert.Equal(t, "File 1: Successfully uploaded 2 new transactions\nFile 2: No new transactions to upload\n", out.String())
	txs, err := mem.FindTransactions(context.Background(), store.Filter{})
	require.NoError(t, err)
	assert.Len(t, txs, 2)
}

func TestRun_Failures(t *testing.T) {
	c, _, _ := containertest.New(t)
	dir := t.TempDir()
	good := writeFile(t, dir, "checking.csv", checking)
	notes := writeFile(t, dir, "notes.txt", "hello")

	var out bytes.Buffer
	err := Run(context.Background(), c, []string{notes, good}, "", &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 files failed")

	lines := out.String()
	assert.Contains(t, lines, "File 1: ")
	assert.Contains(t, lines, "File 2: Successfully uploaded 2 new transactions")
}

func TestRun_NoFiles(t *testing.T) {
	c, _, _ := containertest.New(t)
	err := Run(context.Background(), c, nil, "", &bytes.Buffer{})
	assert.EqualError(t, err, "no input files given")
}

func TestCommandFlags(t *testing.T) {
	assert.Equal(t, "import", Cmd.Use)
	require.NotNil(t, Cmd.Flags().Lookup("input"))
	assert.Equal(t, "i", Cmd.Flags().Lookup("input").Shorthand)
	require.NotNil(t, Cmd.Flags().Lookup("account"))
	assert.Equal(t, "a", Cmd.Flags().Lookup("account").Shorthand)
}

func TestRun_Directory(t *testing.T) {
	c, mem, _ := containertest.New(t)
	dir := t.TempDir()
	writeFile(t, dir, "a.csv", checking)
	writeFile(t, dir, "readme.txt", "ignored")

	var out bytes.Buffer
	require.NoError(t, Run(context.Background(), c, []string{dir}, "", &out))
	assert.Equal(t, "File 1: Successfully uploaded 2 new transactions\n", out.String())

	txs, err := mem.FindTransactions(context.Background(), store.Filter{})
	require.NoError(t, err)
	assert.Len(t, txs, 2)
}
