// Command steelframe evaluates a frame description offline and prints the
// resulting model, timeline or meshes as JSON.
//
//	steelframe [-meshes] [-step n] [-catalog profiles.yaml] wall.sf
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/chazu/steelframe/pkg/catalog"
	"github.com/chazu/steelframe/pkg/engine"
	"github.com/chazu/steelframe/pkg/kernel"
	_ "github.com/chazu/steelframe/pkg/kernel/manifold"
	"github.com/chazu/steelframe/pkg/kernel/sdfx"
	"github.com/chazu/steelframe/pkg/logging"
	"github.com/chazu/steelframe/pkg/model"
	"github.com/chazu/steelframe/pkg/tessellate"
	"github.com/chazu/steelframe/pkg/workspace"
)

type options struct {
	meshes    bool
	step      int
	backend   string
	meshCells int
	catalog   string
	verbose   bool
}

// output is what the command prints.
type output struct {
	Model    *model.Model         `json:"model,omitempty"`
	Solids   int                  `json:"solids"`
	Step     int                  `json:"step"`
	Progress int                  `json:"progress"`
	Meshes   []*kernel.Mesh       `json:"meshes,omitempty"`
	Errors   []engine.EvalError   `json:"errors,omitempty"`
	Warnings []engine.EvalWarning `json:"warnings,omitempty"`
}

func main() {
	var opts options
	flag.BoolVar(&opts.meshes, "meshes", false, "tessellate and include meshes")
	flag.IntVar(&opts.step, "step", -1, "assembly step to show (default: finished)")
	flag.StringVar(&opts.backend, "kernel", sdfx.Name, "geometry kernel backend")
	flag.IntVar(&opts.meshCells, "mesh-cells", 200, "sdfx mesh resolution")
	flag.StringVar(&opts.catalog, "catalog", "", "YAML file of extra profiles")
	flag.BoolVar(&opts.verbose, "v", false, "log to stderr")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: steelframe [flags] <file.sf | ->")
		flag.PrintDefaults()
		os.Exit(2)
	}

	code, err := run(flag.Arg(0), opts, os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, "steelframe:", err)
	}
	os.Exit(code)
}

// run evaluates the file at path and writes JSON to w. It returns 1 when
// the source has evaluation errors.
func run(path string, opts options, w io.Writer) (int, error) {
	source, err := readSource(path)
	if err != nil {
		return 1, err
	}

	logger := zap.NewNop()
	if opts.verbose {
		logger = logging.NewDefaultLogger()
		defer logger.Sync()
	}

	reg, err := catalog.LoadYAML(catalog.Default(), opts.catalog)
	if err != nil {
		return 1, err
	}

	res, err := engine.NewEngine(engine.WithRegistry(reg), engine.WithLogger(logger)).Run(source)
	if err != nil {
		return 1, err
	}
	out := output{Errors: res.Errors, Warnings: res.Warnings}
	if len(res.Errors) > 0 {
		return 1, encode(w, out)
	}

	ws := workspace.New(reg, workspace.WithLogger(logger))
	ws.Load(*res.Model)
	if opts.step >= 0 {
		if out.Solids, err = ws.SetStep(opts.step); err != nil {
			logger.Warn("Step applied with errors", zap.Error(err))
		}
	} else {
		out.Solids = ws.Len()
	}
	t := ws.Timeline()
	out.Step, out.Progress = t.Current(), t.Progress()

	if opts.meshes {
		k, _, err := kernel.Select(opts.backend, sdfx.Name)
		if err != nil {
			return 1, err
		}
		if _, ok := k.(*sdfx.SdfxKernel); ok {
			k = sdfx.New(sdfx.WithMeshCells(opts.meshCells))
		}
		if out.Meshes, err = tessellate.Workspace(ws, k); err != nil {
			return 1, err
		}
	} else {
		m := ws.Model()
		out.Model = &m
	}
	return 0, encode(w, out)
}

func readSource(path string) (string, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
