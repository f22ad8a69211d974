package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"toolcount/internal/agent"
	"toolcount/internal/config"
	"toolcount/internal/spec"
	"toolcount/pkg/ratelimiter"
	"toolcount/pkg/ratelimiter/local"
)

// ProviderFactory builds the provider serving a model.
type ProviderFactory func(ref agent.ModelRef) (agent.Provider, error)

// RunDependencies allows injecting factories and clocks for a run.
type RunDependencies struct {
	ProviderFactory ProviderFactory
	RunID           func() (string, error)
	Now             func() time.Time
	TokenCounter    agent.TokenCounter
	// Limiter replaces the in-process limiter built from the config.
	Limiter        ratelimiter.Limiter
	ReportRenderer ReportRenderer
}

// RunParams configures a run invocation. Experiment settings come from the
// config; callers apply flag overrides to it before calling Run.
type RunParams struct {
	Root             string
	OutputDir        string
	Models           []string
	Verbose          bool
	VerboseWriter    io.Writer
	VerboseLogWriter io.Writer
	NoColor          bool
	Observer         RunObserver
	Deps             RunDependencies
}

// runPlan is a validated run: models with their providers and settings.
type runPlan struct {
	refs      []agent.ModelRef
	providers []agent.Provider
	settings  RunSettings
	policy    ErrorPolicy
}

// Run evaluates every model in order. Configuration problems fail before any
// trial with ErrInvalidConfiguration. An aborted model stops the run; the
// returned Results then hold every model so far, the last one partial.
func Run(ctx context.Context, cfg spec.Config, params RunParams) (Results, error) {
	plan, err := planRun(cfg, params)
	if err != nil {
		return Results{}, err
	}
	runID, err := ensureRunID(params.Deps.RunID)
	if err != nil {
		return Results{}, err
	}
	now := params.Deps.Now
	if now == nil {
		now = time.Now
	}
	tokenCounter := params.Deps.TokenCounter
	if tokenCounter == nil {
		tokenCounter = agent.ApproxTokenCount
	}
	limiter, err := buildLimiter(cfg.Defaults, plan.refs, params.Deps.Limiter)
	if err != nil {
		return Results{}, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}

	results := Results{
		RunID:     runID,
		StartedAt: now(),
		Settings:  plan.settings,
		Models:    make([]ModelResult, 0, len(plan.refs)),
	}
	if params.Observer != nil {
		names := make([]string, 0, len(plan.refs))
		for _, ref := range plan.refs {
			names = append(names, ref.String())
		}
		params.Observer.OnRunStart(runID, names, plan.settings.Experiments)
	}
	vlog := newVerboseLog(params.Verbose, params.VerboseWriter, params.VerboseLogWriter, params.NoColor)
	vlog.printf(styleTask, "Run %s models=%d experiments=%d tool=%s concurrency=%d on_error=%s",
		runID, len(plan.refs), plan.settings.Experiments, plan.settings.ToolName, plan.settings.Concurrency, plan.policy)

	var runErr error
	for i, ref := range plan.refs {
		modelResult, err := RunModel(ctx, ModelRunConfig{
			Trial: TrialConfig{
				Provider:         plan.providers[i],
				Model:            ref,
				ToolName:         plan.settings.ToolName,
				MaxSteps:         plan.settings.MaxSteps,
				MaxSeconds:       time.Duration(cfg.Defaults.MaxSeconds) * time.Second,
				MaxTokens:        cfg.Defaults.MaxTokens,
				TokenCounter:     tokenCounter,
				Verbose:          params.Verbose,
				VerboseWriter:    params.VerboseWriter,
				VerboseLogWriter: params.VerboseLogWriter,
				NoColor:          params.NoColor,
			},
			Experiments: plan.settings.Experiments,
			Concurrency: plan.settings.Concurrency,
			OnError:     plan.policy,
			Limiter:     limiter,
			Observer:    params.Observer,
			Now:         now,
		})
		if err != nil && !errors.As(err, new(*AbortError)) {
			return Results{}, err
		}
		results.Models = append(results.Models, modelResult)
		if params.Observer != nil {
			params.Observer.OnModelEnd(modelResult)
		}
		agg := modelResult.Aggregate
		vlog.printf(styleMetrics, "Model %s status=%s trials=%d accuracy=%.1f%% most_common=%d (%.1f%%)",
			modelResult.Model, modelResult.Status, agg.Experiments, agg.AccuracyPct, agg.MostCommonCount, agg.MostCommonPct)
		if err != nil {
			vlog.printf(styleError, "%v", err)
			runErr = err
			break
		}
	}

	results.FinishedAt = now()
	if params.Observer != nil {
		params.Observer.OnRunEnd(results)
	}
	return results, runErr
}

// RunAndWrite runs and writes results.json and report.html when an output
// directory is configured. Partial results of an aborted run are written too.
func RunAndWrite(ctx context.Context, cfg spec.Config, params RunParams) (Results, OutputPaths, error) {
	results, runErr := Run(ctx, cfg, params)
	if runErr != nil && !errors.As(runErr, new(*AbortError)) {
		return Results{}, OutputPaths{}, runErr
	}
	outputDir := params.OutputDir
	if strings.TrimSpace(outputDir) == "" {
		outputDir = cfg.OutputDir
	}
	if strings.TrimSpace(outputDir) == "" {
		return results, OutputPaths{}, runErr
	}
	outputDir = config.ResolveOutputDir(params.Root, outputDir)
	paths, err := WriteRunOutputs(context.WithoutCancel(ctx), results, outputDir, params.Deps.ReportRenderer)
	if err != nil {
		return results, OutputPaths{}, errors.Join(runErr, err)
	}
	return results, paths, runErr
}

// planRun resolves models and providers and checks settings before anything runs.
func planRun(cfg spec.Config, params RunParams) (runPlan, error) {
	d := cfg.Defaults
	if d.Experiments < 1 {
		return runPlan{}, fmt.Errorf("%w: experiments must be at least 1, got %d", ErrInvalidConfiguration, d.Experiments)
	}
	if d.Concurrency < 0 || d.MaxSteps < 0 || d.MaxSeconds < 0 || d.MaxTokens < 0 {
		return runPlan{}, fmt.Errorf("%w: concurrency, max_steps, max_seconds and max_tokens must not be negative", ErrInvalidConfiguration)
	}
	if !config.ValidToolName(d.ToolName) {
		return runPlan{}, fmt.Errorf("%w: invalid tool name %q", ErrInvalidConfiguration, d.ToolName)
	}
	policy, err := ParseErrorPolicy(d.OnError)
	if err != nil {
		return runPlan{}, err
	}
	refs, err := config.ModelRefs(cfg, params.Models)
	if err != nil {
		return runPlan{}, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}
	factory := params.Deps.ProviderFactory
	if factory == nil {
		factory = func(ref agent.ModelRef) (agent.Provider, error) {
			return config.NewProvider(cfg, ref, nil, nil)
		}
	}
	providers := make([]agent.Provider, 0, len(refs))
	for _, ref := range refs {
		provider, err := factory(ref)
		if err != nil {
			return runPlan{}, fmt.Errorf("%w: model %s: %v", ErrInvalidConfiguration, ref, err)
		}
		providers = append(providers, provider)
	}
	return runPlan{
		refs:      refs,
		providers: providers,
		policy:    policy,
		settings: RunSettings{
			Experiments:       d.Experiments,
			ToolName:          d.ToolName,
			MaxSteps:          d.MaxSteps,
			Concurrency:       max(d.Concurrency, 1),
			OnError:           string(policy),
			RequestsPerMinute: d.RequestsPerMinute,
		},
	}, nil
}

// buildLimiter returns override when set, otherwise an in-process limiter
// holding the per-model request, token, and trial concurrency limits.
func buildLimiter(d spec.Defaults, refs []agent.ModelRef, override ratelimiter.Limiter) (ratelimiter.Limiter, error) {
	if override != nil {
		return override, nil
	}
	limits := ratelimiter.ModelLimits{
		RequestsPerMinute: d.RequestsPerMinute,
		TokensPerMinute:   d.TokensPerMinute,
		Concurrency:       d.Concurrency,
	}
	var defs []ratelimiter.Limit
	seen := map[string]bool{}
	for _, ref := range refs {
		if seen[ref.String()] {
			continue
		}
		seen[ref.String()] = true
		defs = append(defs, limits.Limits(ref.Provider, ref.Name)...)
	}
	if len(defs) == 0 {
		return ratelimiter.Unlimited, nil
	}
	limiter, err := local.New(defs)
	if err != nil {
		return nil, err
	}
	return limiter, nil
}

// ensureRunID uses the provided generator or falls back to NewRunID.
func ensureRunID(generator func() (string, error)) (string, error) {
	if generator != nil {
		return generator()
	}
	return NewRunID()
}
