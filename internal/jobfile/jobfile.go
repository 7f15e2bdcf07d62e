// Package jobfile reads YAML job files: one resource configuration shared by
// a list of jobs, each optionally expanded over a parameter grid.
//
//	configuration:
//	  image: repo/img:tag
//	  gpus: 1
//	  memory: 8G
//	jobs:
//	  - tag: clf
//	    executable: /opt/conda/bin/python
//	    script: classifier.py
//	    args:
//	      batch_size: 32
//	      epochs: 5
//	    grid:
//	      lr: [0.1, 0.01]
//
// Mapping order under args and grid is kept.
package jobfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Justype/condorlink/internal/condor"
	"github.com/Justype/condorlink/internal/utils"
	"gopkg.in/yaml.v3"
)

// File is a parsed job file.
type File struct {
	Path          string
	Configuration *condor.Configuration
	Jobs          []*condor.Job
}

type rawFile struct {
	Configuration rawConfiguration `yaml:"configuration"`
	Jobs          []rawJob         `yaml:"jobs"`
}

type rawConfiguration struct {
	Universe       string   `yaml:"universe"`
	Image          *string  `yaml:"image"`
	Mounts         []string `yaml:"mounts"`
	CPUs           *int     `yaml:"cpus"`
	GPUs           *int     `yaml:"gpus"`
	Memory         string   `yaml:"memory"`
	GPUMemoryMin   string   `yaml:"gpu_memory_min"`
	GPUMemoryMax   string   `yaml:"gpu_memory_max"`
	CUDACapability *float64 `yaml:"cuda_capability"`
	GPUModel       string   `yaml:"gpu_model"`
	HasStornext    bool     `yaml:"has_stornext"`
	NoPriority     bool     `yaml:"no_priority"`
}

type rawJob struct {
	Tag                  string    `yaml:"tag"`
	Executable           string    `yaml:"executable"`
	Script               string    `yaml:"script"`
	Positional           []string  `yaml:"positional"`
	Args                 yaml.Node `yaml:"args"`
	Grid                 yaml.Node `yaml:"grid"`
	ArtifactDir          string    `yaml:"artifact_dir"`
	Checkpoint           bool      `yaml:"checkpoint"`
	RuntimeHours         int       `yaml:"runtime_hours"`
	ShouldTransferFiles  string    `yaml:"should_transfer_files"`
	WhenToTransferOutput string    `yaml:"when_to_transfer_output"`
	StreamOutput         bool      `yaml:"stream_output"`
}

// Load reads and validates the job file at path. defaults fill in resource
// fields the file leaves out.
func Load(path string, defaults condor.ConfigurationOptions) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read job file: %w", err)
	}
	f, err := Parse(bytes.NewReader(data), defaults)
	if err != nil {
		var fe *FileError
		if errors.As(err, &fe) {
			fe.Path = path
		}
		return nil, err
	}
	f.Path = path
	return f, nil
}

// Parse reads a job file from r.
func Parse(r io.Reader, defaults condor.ConfigurationOptions) (*File, error) {
	var raw rawFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &FileError{Err: ErrNoJobs}
		}
		return nil, &FileError{Err: err}
	}
	if len(raw.Jobs) == 0 {
		return nil, &FileError{Err: ErrNoJobs}
	}

	cfg, err := raw.Configuration.build(defaults)
	if err != nil {
		return nil, &FileError{Err: err}
	}

	f := &File{Configuration: cfg}
	for i := range raw.Jobs {
		jobs, err := raw.Jobs[i].expand()
		if err != nil {
			return nil, &FileError{Line: raw.Jobs[i].line(), Err: fmt.Errorf("jobs[%d]: %w", i, err)}
		}
		f.Jobs = append(f.Jobs, jobs...)
	}
	return f, nil
}

func (c rawConfiguration) build(defaults condor.ConfigurationOptions) (*condor.Configuration, error) {
	opts := defaults
	if c.Universe != "" {
		u, err := condor.ParseUniverse(c.Universe)
		if err != nil {
			return nil, err
		}
		opts.Universe = u
		if !u.IsContainer() && c.Image == nil {
			opts.Image = ""
		}
	}
	if c.Image != nil {
		opts.Image = *c.Image
	}
	if c.Mounts != nil {
		opts.ExtraMounts = c.Mounts
	}
	if c.CPUs != nil {
		opts.CPUs = *c.CPUs
	}
	if c.GPUs != nil {
		opts.GPUs = *c.GPUs
	}
	if c.CUDACapability != nil {
		opts.CUDACapability = *c.CUDACapability
	}
	if c.GPUModel != "" {
		opts.GPUModel = c.GPUModel
		if c.CUDACapability == nil {
			opts.CUDACapability = 0
		}
		if c.GPUMemoryMin == "" {
			opts.GPUMemoryMinMB = 0
		}
		if c.GPUMemoryMax == "" {
			opts.GPUMemoryMaxMB = 0
		}
	}
	opts.HasStornext = c.HasStornext
	opts.NoPriority = c.NoPriority

	sizes := []struct {
		field string
		raw   string
		dst   *int64
	}{
		{"memory", c.Memory, &opts.MemoryMB},
		{"gpu_memory_min", c.GPUMemoryMin, &opts.GPUMemoryMinMB},
		{"gpu_memory_max", c.GPUMemoryMax, &opts.GPUMemoryMaxMB},
	}
	for _, s := range sizes {
		if s.raw == "" {
			continue
		}
		mb, err := utils.ParseSizeToMB(s.raw)
		if err != nil {
			return nil, fmt.Errorf("configuration.%s: %w", s.field, err)
		}
		*s.dst = int64(mb)
	}

	return condor.NewConfiguration(opts)
}

func (j *rawJob) line() int {
	switch {
	case j.Args.Line > 0:
		return j.Args.Line
	case j.Grid.Line > 0:
		return j.Grid.Line
	}
	return 0
}

// expand returns one job, or one job per grid combination.
func (j *rawJob) expand() ([]*condor.Job, error) {
	base, err := orderedArgs(&j.Args)
	if err != nil {
		return nil, fmt.Errorf("args: %w", err)
	}
	grid, err := orderedGrid(&j.Grid)
	if err != nil {
		return nil, fmt.Errorf("grid: %w", err)
	}

	combos := []*condor.Args{nil}
	if len(grid.Names()) > 0 {
		combos, err = grid.Combinations()
		if err != nil {
			return nil, err
		}
	}

	jobs := make([]*condor.Job, 0, len(combos))
	for i, combo := range combos {
		args := base.Clone()
		for _, k := range combo.Keys() {
			v, _ := combo.Get(k)
			args.Set(k, v)
		}
		tag := j.Tag
		if len(combos) > 1 && tag != "" {
			tag = tag + "-" + strconv.Itoa(i+1)
		}
		job, err := condor.NewJob(condor.JobOptions{
			Executable:           j.Executable,
			Script:               j.Script,
			Positional:           j.Positional,
			Args:                 args,
			Tag:                  tag,
			ArtifactDir:          j.ArtifactDir,
			CanCheckpoint:        j.Checkpoint,
			RuntimeHours:         j.RuntimeHours,
			ShouldTransferFiles:  condor.TransferMode(strings.ToUpper(j.ShouldTransferFiles)),
			WhenToTransferOutput: condor.OutputWhen(strings.ToUpper(j.WhenToTransferOutput)),
			StreamOutput:         j.StreamOutput,
		})
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// orderedArgs walks a mapping node pair by pair so keys keep file order.
func orderedArgs(n *yaml.Node) (*condor.Args, error) {
	args := condor.NewArgs()
	if n.Kind == 0 {
		return args, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected a mapping", n.Line)
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, value := n.Content[i], n.Content[i+1]
		v, err := scalarValue(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key.Value, err)
		}
		args.Set(key.Value, v)
	}
	return args, nil
}

// orderedGrid reads name: [values...] pairs. A scalar is a single value.
func orderedGrid(n *yaml.Node) (*condor.Grid, error) {
	grid := condor.NewGrid()
	if n.Kind == 0 {
		return grid, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected a mapping", n.Line)
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, value := n.Content[i], n.Content[i+1]
		var values []any
		switch value.Kind {
		case yaml.SequenceNode:
			for _, item := range value.Content {
				v, err := scalarValue(item)
				if err != nil {
					return nil, fmt.Errorf("%s: %w", key.Value, err)
				}
				values = append(values, v)
			}
		default:
			v, err := scalarValue(value)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key.Value, err)
			}
			values = append(values, v)
		}
		grid.Add(key.Value, values...)
	}
	return grid, nil
}

// scalarValue keeps the literal text of a scalar so "0.010" stays "0.010".
// A null value becomes a bare switch.
func scalarValue(n *yaml.Node) (any, error) {
	if n.Kind != yaml.ScalarNode {
		return nil, fmt.Errorf("line %d: expected a scalar value", n.Line)
	}
	if n.Tag == "!!null" {
		return nil, nil
	}
	return n.Value, nil
}
