// Package main provides the spamnet CLI: TF-IDF features, a two-layer
// perceptron trained with momentum SGD, and an evaluation report.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/born-ml/spamnet/internal/backend/cpu"
	"github.com/born-ml/spamnet/internal/data"
	"github.com/born-ml/spamnet/internal/text"
	"github.com/born-ml/spamnet/internal/train"
)

const version = "v0.1.0-dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "spamnet: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	dataPath    string
	configPath  string
	textColumn  string
	labelColumn string
	tokenizer   string
	bpeEncoding string
	lossesPath  string
	verbose     bool

	epochs   int
	hidden   int
	lr       float64
	momentum float64
	batch    int
	seed     int64
}

func parseFlags(args []string, stderr io.Writer) (*options, map[string]bool, error) {
	opts := &options{}
	fs := flag.NewFlagSet("spamnet", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.dataPath, "data", "emails.csv", "CSV file with a text and a label column")
	fs.StringVar(&opts.configPath, "config", "", "YAML config file (flags override it)")
	fs.StringVar(&opts.textColumn, "text-column", "text", "Name of the text column")
	fs.StringVar(&opts.labelColumn, "label-column", "spam", "Name of the label column")
	fs.StringVar(&opts.tokenizer, "tokenizer", "word", "Tokenizer: word or bpe")
	fs.StringVar(&opts.bpeEncoding, "bpe-encoding", "cl100k_base", "tiktoken encoding for -tokenizer bpe")
	fs.StringVar(&opts.lossesPath, "losses", "", "Write per-batch training losses to this CSV file")
	fs.BoolVar(&opts.verbose, "v", false, "Debug logging")

	defaults := train.DefaultConfig()
	fs.IntVar(&opts.epochs, "epochs", defaults.NumEpochs, "Number of training epochs")
	fs.IntVar(&opts.hidden, "hidden", defaults.HiddenDim, "Hidden layer width")
	fs.Float64Var(&opts.lr, "lr", float64(defaults.LearningRate), "Learning rate")
	fs.Float64Var(&opts.momentum, "momentum", float64(defaults.Momentum), "SGD momentum")
	fs.IntVar(&opts.batch, "batch", defaults.BatchSize, "Mini-batch size")
	fs.Int64Var(&opts.seed, "seed", defaults.Seed, "Random seed for init, shuffling and the split")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: spamnet [flags]\n       spamnet version\n\nFlags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return opts, set, nil
}

// config resolves defaults, then the config file, then explicitly set flags.
func (o *options) config(set map[string]bool) (train.Config, error) {
	cfg := train.DefaultConfig()
	if o.configPath != "" {
		var err error
		if cfg, err = train.LoadConfig(o.configPath); err != nil {
			return train.Config{}, err
		}
	}

	if set["epochs"] {
		cfg.NumEpochs = o.epochs
	}
	if set["hidden"] {
		cfg.HiddenDim = o.hidden
	}
	if set["lr"] {
		cfg.LearningRate = float32(o.lr)
	}
	if set["momentum"] {
		cfg.Momentum = float32(o.momentum)
	}
	if set["batch"] {
		cfg.BatchSize = o.batch
	}
	if set["seed"] {
		cfg.Seed = o.seed
	}
	return cfg, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) > 0 && args[0] == "version" {
		fmt.Fprintf(stdout, "spamnet %s\n", version)
		return nil
	}

	opts, set, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	cfg, err := opts.config(set)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	corpus, err := data.LoadCSV(opts.dataPath, opts.textColumn, opts.labelColumn)
	if err != nil {
		return err
	}
	if len(corpus.Classes) != cfg.NumClasses {
		return fmt.Errorf("%w: data has %d classes %v, num_classes is %d",
			train.ErrInvalidConfig, len(corpus.Classes), corpus.Classes, cfg.NumClasses)
	}
	logger.Info("loaded data", "path", opts.dataPath, "documents", len(corpus.Texts), "classes", corpus.Classes)

	tokenizer, err := text.NewTokenizer(opts.tokenizer, opts.bpeEncoding)
	if err != nil {
		return err
	}
	vectorizer := text.NewTFIDF(tokenizer, cfg.InputDim)
	features, err := vectorizer.FitTransform(corpus.Texts)
	if err != nil {
		return err
	}
	cfg.InputDim = vectorizer.VocabSize()
	logger.Info("vectorized", "tokenizer", tokenizer.Name(), "vocabulary", cfg.InputDim)

	ds, err := data.New(features, corpus.Labels)
	if err != nil {
		return err
	}
	trainSet, testSet, err := ds.Split(cfg.TestRatio, cfg.Seed)
	if err != nil {
		return err
	}

	out, err := train.Run(ctx, cfg, trainSet, testSet, corpus.Classes, cpu.New(), logger)
	if err != nil {
		return err
	}

	if opts.lossesPath != "" {
		if err := writeLosses(opts.lossesPath, out.History.Losses, out.TrainBatches); err != nil {
			return err
		}
		logger.Info("wrote losses", "path", opts.lossesPath, "batches", len(out.History.Losses))
	}

	printResults(stdout, cfg, out)
	return nil
}
