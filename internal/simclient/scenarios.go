package simclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/paniker63/the-tale/internal/world"
)

// Target is the server a scenario run talks to and the hero facts valid in its world.
type Target struct {
	URL   string
	Facts world.HeroFacts
}

// Verbose controls whether scenario actions are printed
var Verbose = false

// Result is the outcome of one scenario
type Result struct {
	Name    string
	Passed  bool
	Message string
}

// heroCounter hands out hero ids unlikely to collide with earlier runs
var heroCounter = time.Now().Unix() % 1_000_000 * 1000

func nextHero() int64 {
	return atomic.AddInt64(&heroCounter, 1)
}

func logAction(name, action string) {
	if Verbose {
		fmt.Printf("  [%s] %s\n", name, action)
	}
}

func pass(name, msg string) Result {
	return Result{Name: name, Passed: true, Message: msg}
}

func fail(name string, err error) Result {
	return Result{Name: name, Passed: false, Message: err.Error()}
}

type scenario struct {
	Name string
	Func func(Target) Result
}

func allScenarios() []scenario {
	return []scenario{
		{"Generate", scenarioGenerate},
		{"Playthrough", scenarioPlaythrough},
		{"Deterministic Seed", scenarioDeterministic},
		{"Special Quest First", scenarioSpecialFirst},
		{"Abandon", scenarioAbandon},
		{"Bad Request", scenarioBadRequest},
	}
}

// Names returns the names of all scenarios
func Names() []string {
	var names []string
	for _, s := range allScenarios() {
		names = append(names, s.Name)
	}
	return names
}

// RunAll runs every scenario against t
func RunAll(t Target) []Result {
	return RunFiltered(t, "")
}

// RunFiltered runs the scenarios whose names contain filter (case-insensitive)
func RunFiltered(t Target, filter string) []Result {
	filter = strings.ToLower(filter)
	var results []Result
	for _, s := range allScenarios() {
		if strings.Contains(strings.ToLower(s.Name), filter) {
			results = append(results, s.Func(t))
		}
	}
	return results
}

// PrintResults writes a summary of results to w
func PrintResults(w io.Writer, results []Result) {
	passed := 0
	fmt.Fprintln(w, "============================================================")
	fmt.Fprintln(w, "Quest Server Scenario Results")
	fmt.Fprintln(w, "============================================================")
	for _, r := range results {
		status := "FAIL"
		if r.Passed {
			status = "PASS"
			passed++
		}
		fmt.Fprintf(w, "[%s] %s: %s\n", status, r.Name, r.Message)
	}
	fmt.Fprintln(w, "------------------------------------------------------------")
	fmt.Fprintf(w, "Total: %d | Passed: %d | Failed: %d\n", len(results), passed, len(results)-passed)
}

func connect(name string, t Target) (*Client, error) {
	return Dial(name, t.URL, nil)
}

func scenarioGenerate(t Target) Result {
	const name = "Generate"
	c, err := connect(name, t)
	if err != nil {
		return fail(name, err)
	}
	defer c.Close()

	hero := nextHero()
	logAction(name, fmt.Sprintf("generate for hero %d", hero))
	resp, err := c.Generate(hero, 0, world.HeroFacts{}, "")
	if err != nil {
		return fail(name, err)
	}
	defer c.Abandon(hero)

	if len(resp.Quest) == 0 || len(resp.Narration) == 0 {
		return fail(name, fmt.Errorf("empty quest in response"))
	}
	if resp.Step != resp.Narration[0] {
		return fail(name, fmt.Errorf("first step %q does not open the narration", resp.Step))
	}
	return pass(name, fmt.Sprintf("%d narrated steps", len(resp.Narration)))
}

func scenarioPlaythrough(t Target) Result {
	const name = "Playthrough"
	c, err := connect(name, t)
	if err != nil {
		return fail(name, err)
	}
	defer c.Close()

	hero := nextHero()
	resp, err := c.Generate(hero, 0, t.Facts, "help_friend")
	if err != nil {
		return fail(name, err)
	}

	lines, err := c.Play(hero, len(resp.Narration)+1)
	if err != nil {
		return fail(name, err)
	}
	for i, line := range lines {
		logAction(name, line)
		if line != resp.Narration[i] {
			return fail(name, fmt.Errorf("step %d narrated %q, want %q", i, line, resp.Narration[i]))
		}
	}
	if len(lines) != len(resp.Narration) {
		return fail(name, fmt.Errorf("finished after %d of %d steps", len(lines), len(resp.Narration)))
	}

	var rerr *ResponseError
	if _, err := c.Show(hero); !errors.As(err, &rerr) {
		return fail(name, fmt.Errorf("finished quest still stored"))
	}
	return pass(name, fmt.Sprintf("completed in %d steps", len(lines)))
}

func scenarioDeterministic(t Target) Result {
	const name = "Deterministic Seed"
	c, err := connect(name, t)
	if err != nil {
		return fail(name, err)
	}
	defer c.Close()

	a, b := nextHero(), nextHero()
	first, err := c.Generate(a, 20240101, t.Facts, "")
	if err != nil {
		return fail(name, err)
	}
	defer c.Abandon(a)
	second, err := c.Generate(b, 20240101, t.Facts, "")
	if err != nil {
		return fail(name, err)
	}
	defer c.Abandon(b)

	if string(first.Quest) != string(second.Quest) || !slices.Equal(first.Narration, second.Narration) {
		return fail(name, fmt.Errorf("same seed produced different quests"))
	}
	return pass(name, "same seed, same quest")
}

func scenarioSpecialFirst(t Target) Result {
	const name = "Special Quest First"
	if t.Facts.PrefMobID == 0 {
		return pass(name, "skipped: no preferred mob configured")
	}
	c, err := connect(name, t)
	if err != nil {
		return fail(name, err)
	}
	defer c.Close()

	hero := nextHero()
	resp, err := c.Generate(hero, 0, t.Facts, "")
	if err != nil {
		return fail(name, err)
	}
	defer c.Abandon(hero)

	var q struct {
		Kind    string `json:"kind"`
		Special bool   `json:"special"`
	}
	if err := json.Unmarshal(resp.Quest, &q); err != nil {
		return fail(name, err)
	}
	if !q.Special {
		return fail(name, fmt.Errorf("got %s quest, want a special kind", q.Kind))
	}
	return pass(name, q.Kind)
}

func scenarioAbandon(t Target) Result {
	const name = "Abandon"
	c, err := connect(name, t)
	if err != nil {
		return fail(name, err)
	}
	defer c.Close()

	hero := nextHero()
	if _, err := c.Generate(hero, 0, world.HeroFacts{}, ""); err != nil {
		return fail(name, err)
	}
	if _, err := c.Step(hero); err != nil {
		return fail(name, err)
	}
	if _, err := c.Abandon(hero); err != nil {
		return fail(name, err)
	}
	var rerr *ResponseError
	if _, err := c.Step(hero); !errors.As(err, &rerr) {
		return fail(name, fmt.Errorf("step after abandon should fail, got %v", err))
	}
	return pass(name, rerr.Message)
}

func scenarioBadRequest(t Target) Result {
	const name = "Bad Request"
	c, err := connect(name, t)
	if err != nil {
		return fail(name, err)
	}
	defer c.Close()

	var rerr *ResponseError
	_, err = c.Generate(nextHero(), 0, world.HeroFacts{}, "no_such_kind")
	if !errors.As(err, &rerr) {
		return fail(name, fmt.Errorf("unknown kind accepted: %v", err))
	}

	// The connection survives a rejected request
	hero := nextHero()
	if _, err := c.Generate(hero, 0, world.HeroFacts{}, ""); err != nil {
		return fail(name, err)
	}
	c.Abandon(hero)
	return pass(name, rerr.Message)
}
