package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/spamnet/internal/train"
)

func writeCorpus(t *testing.T) string {
	t.Helper()
	spam := []string{"win money now", "cheap pills offer", "free money prize", "claim your prize now", "limited offer win"}
	ham := []string{"meeting moved to monday", "project notes attached", "lunch on friday", "review the draft", "call me about the meeting"}

	path := filepath.Join(t.TempDir(), "emails.csv")
	f, err := os.Create(path)
	require.NoError(t, err)
	w := csv.NewWriter(f)
	require.NoError(t, w.Write([]string{"text", "spam"}))
	for i := range 2 {
		for j := range spam {
			require.NoError(t, w.Write([]string{fmt.Sprintf("Subject: %s %d", spam[j], i), "1"}))
			require.NoError(t, w.Write([]string{fmt.Sprintf("Subject: %s %d", ham[j], i), "0"}))
		}
	}
	w.Flush()
	require.NoError(t, w.Error())
	require.NoError(t, f.Close())
	return path
}

func TestRun_EndToEnd(t *testing.T) {
	corpus := writeCorpus(t)
	losses := filepath.Join(t.TempDir(), "losses.csv")

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{
		"-data", corpus, "-epochs", "2", "-batch", "4", "-hidden", "4", "-losses", losses,
	}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())

	out := stdout.String()
	assert.Contains(t, out, "Mini batch size: 4")
	assert.Contains(t, out, "Number of batches loaded for training: 4")
	assert.Contains(t, out, "Accuracy:")
	assert.Contains(t, out, "Precision:")
	assert.Contains(t, out, "TN:")
	assert.Contains(t, out, "weighted avg")
	assert.Contains(t, stderr.String(), "run_id=")

	f, err := os.Open(losses)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"batch", "epoch", "loss"}, records[0])
	assert.Len(t, records, 1+2*4, "16 training samples in batches of 4 for 2 epochs")
	assert.Equal(t, "2", records[len(records)-1][1])
}

func TestRun_Version(t *testing.T) {
	var stdout bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"version"}, &stdout, &bytes.Buffer{}))
	assert.Equal(t, "spamnet "+version+"\n", stdout.String())
}

func TestRun_Errors(t *testing.T) {
	var stderr bytes.Buffer
	assert.Error(t, run(context.Background(), []string{"-bogus"}, &bytes.Buffer{}, &stderr))

	err := run(context.Background(), []string{"-data", filepath.Join(t.TempDir(), "missing.csv")}, &bytes.Buffer{}, &stderr)
	assert.Error(t, err)

	err = run(context.Background(), []string{"-data", writeCorpus(t), "-tokenizer", "chars"}, &bytes.Buffer{}, &stderr)
	assert.Error(t, err)

	err = run(context.Background(), []string{"-data", writeCorpus(t), "-lr", "-1"}, &bytes.Buffer{}, &stderr)
	assert.ErrorIs(t, err, train.ErrInvalidConfig)
}

func TestOptions_FlagsOverrideConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("hidden_dim: 8\nnum_epochs: 3\n"), 0o600))

	opts, set, err := parseFlags([]string{"-config", path, "-hidden", "4"}, &bytes.Buffer{})
	require.NoError(t, err)
	cfg, err := opts.config(set)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.HiddenDim, "flag wins")
	assert.Equal(t, 3, cfg.NumEpochs, "file value kept")
	assert.Equal(t, train.DefaultConfig().BatchSize, cfg.BatchSize, "default kept")
}
