package client

import "time"

// Job is a validated submission produced by JobBuilder.
type Job struct {
	Language string `field:"language" validate:"required"`
	Version  string
	Main     *File `field:"main" validate:"required"`
	Extra    []File

	Stdin          string
	Args           []string
	RunTimeout     time.Duration
	CompileTimeout time.Duration
}

// Files returns the main file followed by the extra files.
func (j Job) Files() []File {
	files := make([]File, 0, 1+len(j.Extra))
	if j.Main != nil {
		files = append(files, *j.Main)
	}
	return append(files, j.Extra...)
}

func (j Job) options() []ExecuteOption {
	var opts []ExecuteOption
	if j.Stdin != "" {
		opts = append(opts, WithStdin(j.Stdin))
	}
	if len(j.Args) > 0 {
		opts = append(opts, WithArgs(j.Args...))
	}
	if j.RunTimeout > 0 {
		opts = append(opts, WithRunTimeout(j.RunTimeout))
	}
	if j.CompileTimeout > 0 {
		opts = append(opts, WithCompileTimeout(j.CompileTimeout))
	}
	return opts
}

// JobBuilder collects the parts of a submission. Nothing is checked until
// Build.
//
//	job, err := client.NewJob().
//	    Language("rust").
//	    MainFile(client.File{Name: "main.rs", Content: src}).
//	    Add(client.File{Name: "utils.rs", Content: utils}).
//	    Build()
type JobBuilder struct {
	job Job
}

// NewJob starts an empty job.
func NewJob() *JobBuilder {
	return &JobBuilder{}
}

// Language sets the language name or alias.
func (b *JobBuilder) Language(lang string) *JobBuilder {
	b.job.Language = lang
	return b
}

// Version pins the runtime version. Left empty, Client.Submit resolves it.
func (b *JobBuilder) Version(v string) *JobBuilder {
	b.job.Version = v
	return b
}

// Main sets the entry point as an unnamed file.
func (b *JobBuilder) Main(code string) *JobBuilder {
	return b.MainFile(File{Content: code})
}

// MainFile sets the entry point.
func (b *JobBuilder) MainFile(f File) *JobBuilder {
	b.job.Main = &f
	return b
}

// Add appends auxiliary files after the entry point.
func (b *JobBuilder) Add(files ...File) *JobBuilder {
	b.job.Extra = append(b.job.Extra, files...)
	return b
}

// Stdin sets the program's standard input.
func (b *JobBuilder) Stdin(s string) *JobBuilder {
	b.job.Stdin = s
	return b
}

// Args sets the program's arguments.
func (b *JobBuilder) Args(args ...string) *JobBuilder {
	b.job.Args = args
	return b
}

// RunTimeout caps the run stage's wall time.
func (b *JobBuilder) RunTimeout(d time.Duration) *JobBuilder {
	b.job.RunTimeout = d
	return b
}

// CompileTimeout caps the compile stage's wall time.
func (b *JobBuilder) CompileTimeout(d time.Duration) *JobBuilder {
	b.job.CompileTimeout = d
	return b
}

// Build validates the job. A missing language or main file is reported as
// a *ConfigError matching ErrMissingLanguage or ErrMissingMain.
func (b *JobBuilder) Build() (Job, error) {
	job := b.job
	job.Extra = append([]File(nil), b.job.Extra...)
	if err := validateStruct(job); err != nil {
		return Job{}, err
	}
	return job, nil
}
