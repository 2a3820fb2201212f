package replay

import (
	"embed"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/aretw0/ritual/pkg/domain"
	"gopkg.in/yaml.v3"
)

//go:embed fixtures/*.yaml
var builtin embed.FS

// Expectation is what a fixture must produce. Empty fields are not checked; a nil
// Signals list is unchecked while an empty one requires silence.
type Expectation struct {
	Stage         domain.Stage      `json:"stage,omitempty" yaml:"stage,omitempty"`
	SealStatus    domain.SealStatus `json:"seal_status,omitempty" yaml:"seal_status,omitempty"`
	TotalProgress *float64          `json:"total_progress,omitempty" yaml:"total_progress,omitempty"`
	Signals       []string          `json:"signals" yaml:"signals"`
}

// Fixture is a named trace with its expected outcome.
type Fixture struct {
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Ritual      string            `json:"ritual" yaml:"ritual"`
	Overrides   *domain.Overrides `json:"overrides,omitempty" yaml:"overrides,omitempty"`
	Steps       []Step            `json:"steps" yaml:"steps"`
	Expect      Expectation       `json:"expect" yaml:"expect"`
}

// Trace returns the fixture's input trace.
func (f Fixture) Trace() Trace {
	return Trace{Name: f.Name, Ritual: f.Ritual, Overrides: f.Overrides, Steps: f.Steps}
}

// Catalog is an ordered set of fixtures.
type Catalog struct {
	Fixtures []Fixture `json:"fixtures" yaml:"fixtures"`
}

// ParseFixtures decodes one fixture document.
func ParseFixtures(data []byte) ([]Fixture, error) {
	var doc Catalog
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	for _, f := range doc.Fixtures {
		if f.Name == "" {
			return nil, fmt.Errorf("parse fixtures: fixture without a name")
		}
		for i, s := range f.Steps {
			if !s.Type.Known() {
				return nil, fmt.Errorf("fixture %q: step %d: unknown event type %q", f.Name, i, s.Type)
			}
		}
	}
	return doc.Fixtures, nil
}

// LoadCatalog reads every *.yaml and *.yml file at the root of fsys, in name order.
func LoadCatalog(fsys fs.FS) (*Catalog, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read fixture dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		ext := strings.ToLower(path.Ext(e.Name()))
		if !e.IsDir() && (ext == ".yaml" || ext == ".yml") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	cat := &Catalog{}
	seen := make(map[string]string)
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read fixture %s: %w", name, err)
		}
		fixtures, err := ParseFixtures(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		for _, f := range fixtures {
			if prev, dup := seen[f.Name]; dup {
				return nil, fmt.Errorf("%s: fixture %q already defined in %s", name, f.Name, prev)
			}
			seen[f.Name] = name
		}
		cat.Fixtures = append(cat.Fixtures, fixtures...)
	}
	return cat, nil
}

// LoadCatalogDir loads the fixtures in dir.
func LoadCatalogDir(dir string) (*Catalog, error) {
	return LoadCatalog(os.DirFS(dir))
}

// BuiltinCatalog returns the fixtures shipped with the engine: the canonical scenarios
// for every preset.
func BuiltinCatalog() (*Catalog, error) {
	sub, err := fs.Sub(builtin, "fixtures")
	if err != nil {
		return nil, err
	}
	return LoadCatalog(sub)
}

// Mismatch is one difference between a fixture's expectation and its replay.
type Mismatch struct {
	Field    string `json:"field"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
}

// FixtureResult is the verdict for one fixture.
type FixtureResult struct {
	Name        string     `json:"name"`
	Ritual      string     `json:"ritual"`
	Passed      bool       `json:"passed"`
	Mismatches  []Mismatch `json:"mismatches,omitempty"`
	Fingerprint string     `json:"fingerprint,omitempty"`
}

// Report is the verdict for a catalog.
type Report struct {
	Results []FixtureResult `json:"results"`
	Passed  int             `json:"passed"`
	Failed  int             `json:"failed"`
}

// OK reports whether every fixture passed.
func (r Report) OK() bool {
	return r.Failed == 0
}

const progressTolerance = 1e-9

// RunCatalog replays every fixture twice and compares the outcome with its expectation.
// Unknown rituals and nondeterministic runs are reported as mismatches.
func RunCatalog(cat *Catalog, opts ...Option) Report {
	c := newConfig(opts)
	report := Report{Results: make([]FixtureResult, 0, len(cat.Fixtures))}

	for _, f := range cat.Fixtures {
		fr := verify(c, f)
		if fr.Passed {
			report.Passed++
		} else {
			report.Failed++
		}
		report.Results = append(report.Results, fr)
	}
	return report
}

func verify(c *config, f Fixture) FixtureResult {
	fr := FixtureResult{Name: f.Name, Ritual: f.Ritual}

	res, err := replay(c, f.Trace())
	if err != nil {
		fr.Mismatches = []Mismatch{{Field: "ritual", Expected: "known ritual", Actual: f.Ritual}}
		return fr
	}
	fr.Fingerprint = res.Fingerprint()

	want := f.Expect
	snap := res.FinalSnapshot
	if want.Stage != "" && want.Stage != res.FinalState.Stage {
		fr.Mismatches = append(fr.Mismatches, Mismatch{"stage", string(want.Stage), string(res.FinalState.Stage)})
	}
	if want.SealStatus != "" && want.SealStatus != snap.SealStatus {
		fr.Mismatches = append(fr.Mismatches, Mismatch{"seal_status", string(want.SealStatus), string(snap.SealStatus)})
	}
	if want.TotalProgress != nil && math.Abs(*want.TotalProgress-snap.TotalProgress) > progressTolerance {
		fr.Mismatches = append(fr.Mismatches, Mismatch{"snapshot",
			fmt.Sprintf("total_progress %g", *want.TotalProgress),
			fmt.Sprintf("total_progress %g", snap.TotalProgress)})
	}
	if want.Signals != nil {
		got := res.SignalNames()
		if strings.Join(want.Signals, ",") != strings.Join(got, ",") || len(want.Signals) != len(got) {
			fr.Mismatches = append(fr.Mismatches, Mismatch{"signals", formatNames(want.Signals), formatNames(got)})
		}
	}

	if again, err := replay(c, f.Trace()); err == nil && again.Fingerprint() != fr.Fingerprint {
		fr.Mismatches = append(fr.Mismatches, Mismatch{"determinism", fr.Fingerprint, again.Fingerprint()})
	}

	fr.Passed = len(fr.Mismatches) == 0
	return fr
}

func formatNames(names []string) string {
	return "[" + strings.Join(names, " ") + "]"
}
