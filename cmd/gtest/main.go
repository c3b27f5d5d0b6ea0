// gtest compiles every test program with the target compiler and compares the
// console output and the quadruple listing against a recorded golden file
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/xplshn/cminus/pkg/ir"
)

type Execution struct {
	Stdout   string        `json:"stdout"`
	Stderr   string        `json:"stderr"`
	ExitCode int           `json:"exitCode"`
	Duration time.Duration `json:"duration"`
	TimedOut bool          `json:"timed_out"`
}

// CompileResult is what gets recorded in a golden file
type CompileResult struct {
	Hash    string    `json:"hash"`
	Compile Execution `json:"compile"`
	Midcode []string  `json:"midcode,omitempty"`
}

type FileTestResult struct {
	File    string `json:"file"`
	Status  string `json:"status"` // PASS, FAIL, SKIP, ERROR
	Message string `json:"message,omitempty"`
	Diff    string `json:"diff,omitempty"`
}

var (
	targetCompiler = flag.String("target-compiler", "./cmc", "Path to the compiler under test.")
	targetArgs     = flag.String("target-args", "", "Extra arguments for the compiler (space-separated).")
	generateGolden = flag.Bool("generate-golden", false, "Record golden files instead of comparing against them.")
	testFiles      = flag.String("test-files", "tests/*.cm", "Glob pattern(s) for files to test (space-separated).")
	outputJSON     = flag.String("output", ".test_results.json", "Output file for the JSON test report.")
	timeout        = flag.Duration("timeout", 5*time.Second, "Timeout for each compiler run.")
	jobs           = flag.Int("j", 4, "Number of parallel test jobs.")
	verbose        = flag.Bool("v", false, "Enable verbose logging.")
	jsonDir        = flag.String("dir", "", "Directory to store/read golden JSON files (defaults to source file dir).")
)

const (
	cRed    = "\x1b[91m"
	cYellow = "\x1b[93m"
	cGreen  = "\x1b[92m"
	cBold   = "\x1b[1m"
	cNone   = "\x1b[0m"
)

func main() {
	flag.Parse()
	log.SetFlags(0)

	tempDir, err := os.MkdirTemp("", "gtest-*")
	if err != nil {
		log.Fatalf("%s[ERROR]%s Failed to create temp directory: %v\n", cRed, cNone, err)
	}
	defer os.RemoveAll(tempDir)

	files, err := expandGlobPatterns(*testFiles)
	if err != nil {
		log.Fatalf("%s[ERROR]%s Invalid glob pattern(s): %v\n", cRed, cNone, err)
	}
	if len(files) == 0 {
		log.Println("No test files found matching the pattern(s).")
		return
	}

	results := runAll(files, tempDir)
	printSummary(results)
	if err := writeJSONReport(results); err != nil {
		log.Printf("%s[WARN]%s %v\n", cYellow, cNone, err)
	}
	for _, r := range results {
		if r.Status == "FAIL" || r.Status == "ERROR" {
			os.Exit(1)
		}
	}
}

func expandGlobPatterns(patterns string) ([]string, error) {
	var files []string
	for _, pattern := range strings.Fields(patterns) {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

func getJSONPath(sourceFile string) string {
	name := "." + filepath.Base(sourceFile) + ".json"
	if *jsonDir != "" {
		return filepath.Join(*jsonDir, name)
	}
	return filepath.Join(filepath.Dir(sourceFile), name)
}

// hashFile computes the xxhash of a file's content
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum64()), nil
}

func runAll(files []string, tempDir string) []*FileTestResult {
	tasks := make(chan [2]string, len(files))
	resultsChan := make(chan *FileTestResult, len(files))
	var wg sync.WaitGroup

	for i := 0; i < max(*jobs, 1); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range tasks {
				resultsChan <- testFile(task[0], task[1], tempDir)
			}
		}()
	}

	// Files with identical content are only compiled once
	seenHashes := make(map[string]string)
	for _, file := range files {
		fileHash, err := hashFile(file)
		if err != nil {
			resultsChan <- &FileTestResult{File: file, Status: "ERROR", Message: fmt.Sprintf("Failed to read file for hashing: %v", err)}
			continue
		}
		if original, seen := seenHashes[fileHash]; seen {
			resultsChan <- &FileTestResult{File: file, Status: "SKIP", Message: fmt.Sprintf("Content is identical to %s", original)}
			continue
		}
		seenHashes[fileHash] = file
		tasks <- [2]string{file, fileHash}
	}
	close(tasks)

	wg.Wait()
	close(resultsChan)

	var all []*FileTestResult
	for r := range resultsChan {
		all = append(all, r)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].File < all[j].File })
	return all
}

func testFile(file, fileHash, tempDir string) *FileTestResult {
	got, err := compile(file, fileHash, tempDir)
	if err != nil {
		return &FileTestResult{File: file, Status: "ERROR", Message: err.Error()}
	}

	goldenFile := getJSONPath(file)
	if *generateGolden {
		data, err := json.MarshalIndent(got, "", "  ")
		if err != nil {
			return &FileTestResult{File: file, Status: "ERROR", Message: fmt.Sprintf("Failed to marshal golden data: %v", err)}
		}
		if err := os.WriteFile(goldenFile, data, 0644); err != nil {
			return &FileTestResult{File: file, Status: "ERROR", Message: fmt.Sprintf("Failed to write golden file: %v", err)}
		}
		return &FileTestResult{File: file, Status: "PASS", Message: "Golden file written to " + goldenFile}
	}

	data, err := os.ReadFile(goldenFile)
	if err != nil {
		return &FileTestResult{File: file, Status: "SKIP", Message: "No golden file; run with --generate-golden"}
	}
	var want CompileResult
	if err := json.Unmarshal(data, &want); err != nil {
		return &FileTestResult{File: file, Status: "ERROR", Message: fmt.Sprintf("Could not parse golden file %s: %v", goldenFile, err)}
	}
	if want.Hash != got.Hash && *verbose {
		log.Printf("[%s] source changed since the golden file was recorded\n", file)
	}

	var diffs []string
	if d := cmp.Diff(want.Compile.ExitCode, got.Compile.ExitCode); d != "" {
		diffs = append(diffs, "exit code:\n"+d)
	}
	if d := cmp.Diff(want.Compile.Stdout, got.Compile.Stdout); d != "" {
		diffs = append(diffs, "stdout:\n"+d)
	}
	if d := cmp.Diff(want.Midcode, got.Midcode); d != "" {
		diffs = append(diffs, "midcode:\n"+d)
	}
	if len(diffs) > 0 {
		return &FileTestResult{File: file, Status: "FAIL", Message: "Output differs from golden file", Diff: strings.Join(diffs, "\n")}
	}
	return &FileTestResult{File: file, Status: "PASS"}
}

// compile runs the compiler on file and collects its output and quadruple listing
func compile(file, fileHash, tempDir string) (*CompileResult, error) {
	outPath := filepath.Join(tempDir, fileHash+".txt")
	args := append(strings.Fields(*targetArgs), "-o", outPath, file)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, *targetCompiler, args...)
	cmd.Stdout, cmd.Stderr = &stdout, &stderr

	start := time.Now()
	err := cmd.Run()
	run := Execution{
		Stdout:   strings.ReplaceAll(stdout.String(), outPath, "<output>"),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
		TimedOut: errors.Is(ctx.Err(), context.DeadlineExceeded),
	}
	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		run.ExitCode = exitErr.ExitCode()
	case run.TimedOut:
		run.ExitCode = -1
	default:
		return nil, fmt.Errorf("failed to run %s: %w", *targetCompiler, err)
	}
	if *verbose {
		log.Printf("[%s] exit %d in %v\n", file, run.ExitCode, run.Duration)
	}

	result := &CompileResult{Hash: fileHash, Compile: run}
	f, err := os.Open(outPath)
	if err != nil {
		return result, nil
	}
	defer f.Close()
	prog, err := ir.ReadMidcode(f)
	if err != nil {
		return nil, fmt.Errorf("invalid midcode listing: %w", err)
	}
	for _, q := range prog.Quads {
		result.Midcode = append(result.Midcode, q.String())
	}
	return result, nil
}

func printSummary(results []*FileTestResult) {
	counts := map[string]int{}
	for _, r := range results {
		counts[r.Status]++
		color := cGreen
		switch r.Status {
		case "FAIL", "ERROR":
			color = cRed
		case "SKIP":
			color = cYellow
		}
		fmt.Printf("%s[%s]%s %s", color, r.Status, cNone, r.File)
		if r.Message != "" {
			fmt.Printf(" - %s", r.Message)
		}
		fmt.Println()
		if r.Diff != "" {
			fmt.Println(r.Diff)
		}
	}
	fmt.Printf("\n%s%d passed, %d failed, %d errors, %d skipped%s\n", cBold, counts["PASS"], counts["FAIL"], counts["ERROR"], counts["SKIP"], cNone)
}

func writeJSONReport(results []*FileTestResult) error {
	report := make(map[string]*FileTestResult, len(results))
	for _, r := range results {
		report[r.File] = r
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	path := *outputJSON
	if *jsonDir != "" {
		path = filepath.Join(*jsonDir, *outputJSON)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report %s: %w", path, err)
	}
	return nil
}
