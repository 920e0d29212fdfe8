package main

import (
	"context"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/gin-gonic/gin"

	"github.com/YuminosukeSato/burnrate/config"
	"github.com/YuminosukeSato/burnrate/dashboard"
	"github.com/YuminosukeSato/burnrate/dataset"
	"github.com/YuminosukeSato/burnrate/features"
	"github.com/YuminosukeSato/burnrate/inference"
	"github.com/YuminosukeSato/burnrate/insights"
	"github.com/YuminosukeSato/burnrate/pkg/log"
	"github.com/YuminosukeSato/burnrate/registry"
	"github.com/YuminosukeSato/burnrate/training"
)

type command func(*pipeline, context.Context) error

var commands = map[string]command{
	"preprocess": (*pipeline).preprocess,
	"train":      (*pipeline).train,
	"predict":    (*pipeline).predict,
	"insights":   (*pipeline).insights,
	"eda":        (*pipeline).eda,
	"serve":      (*pipeline).serve,
	"all":        (*pipeline).all,
}

func commandList() string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, "|")
}

type pipeline struct {
	cfg    *config.Config
	logger log.Logger
	out    io.Writer
}

func (p *pipeline) done(format string, args ...any) {
	color.New(color.FgGreen).Fprintf(p.out, "✔ "+format+"\n", args...)
}

func (p *pipeline) processed(name string) string {
	return filepath.Join(p.cfg.ProcessedDir, name)
}

func (p *pipeline) preprocess(_ context.Context) error {
	train, err := dataset.ReadEmployees(p.cfg.TrainPath)
	if err != nil {
		return err
	}
	test, err := dataset.ReadEmployees(p.cfg.TestPath)
	if err != nil {
		return err
	}
	res, err := features.Preprocess(train, test,
		features.WithEncoderFit(p.cfg.EncoderFit),
		features.WithLogger(p.logger.With(log.ComponentKey, "features")),
	)
	if err != nil {
		return err
	}
	store, err := registry.Open(p.cfg.ModelDir)
	if err != nil {
		return err
	}
	if err := res.Save(store, p.cfg.ProcessedDir); err != nil {
		return err
	}
	p.done("preprocessed %d training and %d test rows into %s", res.Train.Len(), res.Test.Len(), p.cfg.ProcessedDir)
	return nil
}

func (p *pipeline) train(ctx context.Context) error {
	frame, err := dataset.ReadFrame(p.processed(features.TrainProcessedFile))
	if err != nil {
		return err
	}
	store, err := registry.Open(p.cfg.ModelDir)
	if err != nil {
		return err
	}
	trainer := training.NewTrainer(p.cfg.Training(), training.WithLogger(p.logger.With(log.ComponentKey, "training")))
	out, err := trainer.Run(ctx, frame, store)
	if err != nil {
		return err
	}
	training.WriteReport(p.out, out.Manifest)
	p.done("best model %s saved to %s", out.BestResult().Name, store.Path(registry.BestModel))
	return nil
}

func (p *pipeline) predict(_ context.Context) error {
	store, err := registry.OpenExisting(p.cfg.ModelDir)
	if err != nil {
		return err
	}
	n, err := inference.Run(store, p.processed(features.TestProcessedFile), p.cfg.SubmissionPath,
		p.logger.With(log.ComponentKey, "inference"))
	if err != nil {
		return err
	}
	p.done("%d predictions written to %s", n, p.cfg.SubmissionPath)
	return nil
}

func (p *pipeline) insights(_ context.Context) error {
	store, err := registry.OpenExisting(p.cfg.ModelDir)
	if err != nil {
		return err
	}
	rep, err := insights.Generate(store, p.cfg.InsightsDir, p.logger.With(log.ComponentKey, "insights"))
	if err != nil {
		return err
	}
	p.done("feature importances written to %s and %s", rep.CSVPath, rep.PlotPath)
	return nil
}

func (p *pipeline) eda(_ context.Context) error {
	train, err := dataset.ReadEmployees(p.cfg.TrainPath)
	if err != nil {
		return err
	}
	paths, err := insights.EDA(train, p.cfg.EDADir, time.Now(), p.logger.With(log.ComponentKey, "insights"))
	if err != nil {
		return err
	}
	p.done("%d EDA charts written to %s", len(paths), p.cfg.EDADir)
	return nil
}

func (p *pipeline) serve(ctx context.Context) error {
	if p.cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	logger := p.logger.With(log.ComponentKey, "dashboard")
	artifacts, err := dashboard.LoadArtifacts(p.cfg.ModelDir, logger)
	if err != nil {
		return err
	}
	srv, err := dashboard.New(artifacts, dashboard.Options{
		EDADir:      p.cfg.EDADir,
		InsightsDir: p.cfg.InsightsDir,
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	return srv.Run(ctx, p.cfg.Addr)
}

// all runs every batch step in order; serve is left to its own command.
func (p *pipeline) all(ctx context.Context) error {
	for _, step := range []command{
		(*pipeline).preprocess,
		(*pipeline).train,
		(*pipeline).predict,
		(*pipeline).eda,
		(*pipeline).insights,
	} {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := step(p, ctx); err != nil {
			return err
		}
	}
	return nil
}
