// Command mockgen writes a synthetic cscope database with a layered call
// graph, for exercising csgraph on large inputs.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"

	"github.com/zheng/csgraph/internal/cscope"
)

// Config represents the mock database configuration
type Config struct {
	Output          string
	NumFiles        int
	NumFuncsPerFile int
	MaxDepth        int
	CallDensity     float64 // average calls made by each function
	Seed            uint64
}

// FuncInfo represents a function in the mock database
type FuncInfo struct {
	Name    string
	Depth   int
	FileIdx int
}

func main() {
	cfg := Config{}
	flag.StringVar(&cfg.Output, "o", "cscope.out", "output database")
	flag.IntVar(&cfg.NumFiles, "files", 20, "number of source files")
	flag.IntVar(&cfg.NumFuncsPerFile, "funcs", 100, "functions per file")
	flag.IntVar(&cfg.MaxDepth, "depth", 10, "maximum call depth")
	flag.Float64Var(&cfg.CallDensity, "density", 3.0, "average calls per function")
	flag.Uint64Var(&cfg.Seed, "seed", 1, "random seed")
	flag.Parse()

	fmt.Printf("Generating mock database...\n")
	fmt.Printf("  files:     %d\n", cfg.NumFiles)
	fmt.Printf("  functions: %d\n", cfg.NumFiles*cfg.NumFuncsPerFile)
	fmt.Printf("  depth:     %d\n", cfg.MaxDepth)
	fmt.Printf("  density:   %.1f\n", cfg.CallDensity)

	if err := run(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nWrote %s\n", cfg.Output)
	fmt.Printf("  csgraph -c %s graph -f %s -d 3\n", cfg.Output, funcName(0, 0))
}

func run(cfg *Config) error {
	f, err := os.Create(cfg.Output)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := cscope.Write(w, Generate(cfg)); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return f.Close()
}

// Generate builds the store. The same Config always yields the same store.
func Generate(cfg *Config) *cscope.Store {
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))

	allFuncs := generateFuncRegistry(cfg)
	funcsByDepth := organizeFuncsByDepth(allFuncs, cfg.MaxDepth)

	store := &cscope.Store{Header: cscope.Header{Version: 15, Dir: "."}}
	for fileIdx := 0; fileIdx < cfg.NumFiles; fileIdx++ {
		file := &cscope.File{Name: fmt.Sprintf("src/file%02d.c", fileIdx), Mark: cscope.MarkFile}
		store.Trailer.Sources = append(store.Trailer.Sources, file.Name)

		line := 1
		for _, fn := range allFuncs[fileIdx*cfg.NumFuncsPerFile : (fileIdx+1)*cfg.NumFuncsPerFile] {
			def := &cscope.Function{Symbol: cscope.Symbol{
				Name: fn.Name,
				Kind: cscope.FunctionDefinition,
				Line: line,
				File: fileIdx,
			}}
			line++
			for _, target := range generateCalls(rng, fn, funcsByDepth, cfg) {
				def.Calls = append(def.Calls, cscope.Symbol{
					Name: target.Name,
					Kind: cscope.FunctionCall,
					Line: line,
					File: fileIdx,
				})
				line++
			}
			file.Functions = append(file.Functions, def)
			line += 2
		}
		store.Files = append(store.Files, file)
	}
	return store
}

func funcName(fileIdx, funcIdx int) string {
	return fmt.Sprintf("f%02d_%04d", fileIdx, funcIdx)
}

func generateFuncRegistry(cfg *Config) []*FuncInfo {
	var funcs []*FuncInfo
	for fileIdx := 0; fileIdx < cfg.NumFiles; fileIdx++ {
		for funcIdx := 0; funcIdx < cfg.NumFuncsPerFile; funcIdx++ {
			funcs = append(funcs, &FuncInfo{Name: funcName(fileIdx, funcIdx), FileIdx: fileIdx})
		}
	}
	return funcs
}

// organizeFuncsByDepth spreads functions evenly over the depth layers
func organizeFuncsByDepth(allFuncs []*FuncInfo, maxDepth int) [][]*FuncInfo {
	funcsByDepth := make([][]*FuncInfo, maxDepth+1)
	for i, fn := range allFuncs {
		fn.Depth = i % (maxDepth + 1)
		funcsByDepth[fn.Depth] = append(funcsByDepth[fn.Depth], fn)
	}
	return funcsByDepth
}

// generateCalls picks distinct callees from deeper layers only, so the graph is acyclic
func generateCalls(rng *rand.Rand, fn *FuncInfo, funcsByDepth [][]*FuncInfo, cfg *Config) []*FuncInfo {
	nextDepth := fn.Depth + 1
	if nextDepth >= len(funcsByDepth) || len(funcsByDepth[nextDepth]) == 0 || cfg.CallDensity <= 0 {
		return nil
	}

	numCalls := rng.IntN(int(cfg.CallDensity*2)+1) + 1
	if numCalls > int(cfg.CallDensity*1.5) {
		numCalls = max(int(cfg.CallDensity), 1)
	}

	var calls []*FuncInfo
	seen := make(map[string]bool)
	for i := 0; i < numCalls; i++ {
		// Mostly the next layer, sometimes any deeper one
		depth := nextDepth
		if rng.Float64() >= 0.8 {
			depth = nextDepth + rng.IntN(len(funcsByDepth)-nextDepth)
		}
		layer := funcsByDepth[depth]
		if len(layer) == 0 {
			continue
		}
		target := layer[rng.IntN(len(layer))]
		if !seen[target.Name] {
			calls = append(calls, target)
			seen[target.Name] = true
		}
	}
	return calls
}
