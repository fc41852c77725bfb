package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	watermark "github.com/yyyoichi/watermark_desk"
	"github.com/yyyoichi/watermark_desk/internal/pipeline"
)

// jobSpec is one entry of a job file.
type jobSpec struct {
	Op             string `yaml:"op"`
	Mode           string `yaml:"mode"`
	Image          string `yaml:"image"`
	Output         string `yaml:"output"`
	PasswordImg    *int   `yaml:"passwordImg"`
	PasswordWm     *int   `yaml:"passwordWm"`
	Content        string `yaml:"content"`
	WatermarkImage string `yaml:"watermarkImage"`
	Shape          string `yaml:"shape"`
}

func (j jobSpec) job() (pipeline.Job, error) {
	op, err := pipeline.ParseOp(j.Op)
	if err != nil {
		return pipeline.Job{}, err
	}
	mode := watermark.ModeText
	if j.Mode != "" {
		if mode, err = watermark.ParseMode(j.Mode); err != nil {
			return pipeline.Job{}, err
		}
	}
	req := pipeline.Request{
		Mode:               mode,
		ImagePath:          j.Image,
		OutputPath:         j.Output,
		PasswordImg:        1,
		PasswordWm:         1,
		Content:            j.Content,
		WatermarkImagePath: j.WatermarkImage,
		Shape:              j.Shape,
	}
	if j.PasswordImg != nil {
		req.PasswordImg = *j.PasswordImg
	}
	if j.PasswordWm != nil {
		req.PasswordWm = *j.PasswordWm
	}
	return pipeline.Job{Op: op, Request: req}, nil
}

// readJobs parses a YAML list of jobs.
func readJobs(path string) ([]pipeline.Job, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read job file")
	}
	var specs []jobSpec
	if err := yaml.Unmarshal(b, &specs); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	jobs := make([]pipeline.Job, 0, len(specs))
	for i, s := range specs {
		j, err := s.job()
		if err != nil {
			return nil, errors.Wrapf(err, "job %d", i+1)
		}
		jobs = append(jobs, j)
	}
	return jobs, nil
}

func runBatch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("batch", flag.ExitOnError)
	var ef engineFlags
	ef.register(fs)
	file := fs.String("f", "jobs.yaml", "job file")
	workers := fs.Int("workers", 0, "parallel jobs, 0 for GOMAXPROCS")
	_ = fs.Parse(args)

	jobs, err := readJobs(*file)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		return errors.Errorf("%s has no jobs", *file)
	}
	p, err := ef.pipeline()
	if err != nil {
		return err
	}

	failed := 0
	for i, res := range p.Batch(ctx, jobs, *workers) {
		ev := log.Info()
		if !res.OK {
			failed++
			ev = log.Warn().Err(res.Err)
		}
		ev.Int("job", i+1).Stringer("op", jobs[i].Op).Msg(res.Message)
		if res.OK && res.Payload != nil && res.Payload.BitLength > 0 {
			fmt.Printf("%d\t%s\tbits=%d\n", i+1, jobs[i].Request.OutputPath, res.Payload.BitLength)
		}
	}
	if failed > 0 {
		return errors.Errorf("%d of %d jobs failed", failed, len(jobs))
	}
	return nil
}
