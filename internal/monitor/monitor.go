package monitor

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/driftwatch/driftwatch/internal/fingerprint"
)

// CacheKey is the fixed key under which the fingerprint cache is persisted
// in the owning resource's key-value store.
const CacheKey = "checksums"

// ErrInconsistentState marks an internal invariant violation. It indicates a
// bug in the orchestration, not an environmental condition, and is surfaced
// distinctly so it is never masked as an ordinary runtime failure.
var ErrInconsistentState = errors.New("monitor: inconsistent internal state")

// Outcome is the result classification of one retrieval.
type Outcome int

const (
	// NoChange means the observed fingerprint matched the cache, no prior
	// entry existed, or the object state precluded comparison.
	NoChange Outcome = iota
	// Changed means the observed fingerprint diverged from the cached one.
	Changed
)

func (o Outcome) String() string {
	if o == Changed {
		return "changed"
	}
	return "no-change"
}

// Result is what one retrieval or reconcile reports to the caller.
type Result struct {
	Outcome     Outcome
	Fingerprint fingerprint.Fingerprint // freshly observed value, zero when absent
	Prior       fingerprint.Fingerprint // superseded cache entry, zero on first sight

	// Dropped is set when a permission failure forced checksum tracking to
	// be abandoned for the remainder of the cycle.
	Dropped bool
}

// observation is the transient per-evaluation record threaded through the
// pipeline stages: the observed value, the algorithm it was observed under,
// and bookkeeping used only to render an accurate change description.
type observation struct {
	is            string // tagged fingerprint, or the absent sentinel
	should        fingerprint.Algorithm
	prior         string // superseded cache entry, "" when none
	freshlyCached bool
}

// Monitor detects content and metadata divergence for a single filesystem
// object. It never mutates the object; the cache of last-known fingerprints
// is its only state. Not safe for concurrent use: the owning system must
// guarantee at most one in-flight evaluation per object.
type Monitor struct {
	res  Resource
	algo fingerprint.Algorithm

	cache    Cache
	hydrated bool

	last     *observation
	assigned *fingerprint.Fingerprint // pending injected value for Reconcile
	prior    *fingerprint.Fingerprint // cache entry superseded by Assign
}

// New builds a Monitor for res using algo as the basis for sync comparison.
func New(res Resource, algo fingerprint.Algorithm) (*Monitor, error) {
	canonical, err := fingerprint.ParseAlgorithm(string(algo))
	if err != nil {
		return nil, err
	}
	return &Monitor{res: res, algo: canonical}, nil
}

// Algorithm returns the algorithm currently requested for sync comparison.
func (m *Monitor) Algorithm() fingerprint.Algorithm { return m.algo }

// hydrate loads the persisted fingerprint cache on first use.
func (m *Monitor) hydrate() {
	if m.hydrated {
		return
	}
	m.hydrated = true
	if snapshot, ok := m.res.CachedValue(CacheKey); ok {
		m.cache.Load(snapshot)
	}
}

// flush persists the cache through the owning resource.
func (m *Monitor) flush() {
	if err := m.res.CacheStore(CacheKey, m.cache.Snapshot()); err != nil {
		slog.Warn("failed to persist fingerprint cache", "path", m.res.Path(), "error", err)
	}
}

// Retrieve observes the object once: stat, classify, compute, evaluate
// against the cache, and record. The first time a fingerprint is seen for an
// algorithm it is cached silently; only genuine divergence from a previously
// recorded value reports Changed.
func (m *Monitor) Retrieve() (Result, error) {
	m.hydrate()

	path := m.res.Path()
	st := &observation{should: m.algo}

	info, err := m.res.Stat()
	if err != nil {
		if !os.IsNotExist(err) {
			return Result{}, fmt.Errorf("stat %s: %w", path, err)
		}
		// Absent object: no comparison is possible, and no cache entry is
		// created. Stay quiet while an external source copy is populating it.
		st.is = fingerprint.Absent
		if prior, ok := m.cache.Get(m.algo); ok {
			st.prior = prior.String()
		}
		m.last = st
		if !m.res.HasActiveSourceCopy() {
			slog.Warn("cannot fingerprint object, it does not exist", "path", path, "algorithm", m.algo)
		}
		return Result{Outcome: NoChange}, nil
	}

	effective := fingerprint.Effective(m.algo, info)

	// Symlinks are never content-hashed. Under a no-follow policy the
	// observed value is forced equal to the cache, so no event can arise.
	if info.Mode()&fs.ModeSymlink != 0 && m.res.LinkPolicy() == NoFollowLinks {
		observed, ok := m.cache.Get(effective)
		if !ok {
			observed = fingerprint.New(effective, fingerprint.NoChecksum)
		}
		st.is = observed.String()
		m.last = st
		return Result{Outcome: NoChange, Fingerprint: observed}, nil
	}

	observed, err := fingerprint.Compute(effective, info, path)
	if err != nil {
		if errors.Is(err, fingerprint.ErrAccessDenied) {
			// Content is unreadable; drop checksum tracking for this cycle
			// rather than fabricating a value or failing the evaluation.
			slog.Warn("content unreadable, dropping checksum tracking for this cycle", "path", path, "algorithm", effective)
			st.is = fingerprint.NoChecksum
			m.last = st
			return Result{Outcome: NoChange, Dropped: true}, nil
		}
		return Result{}, err
	}

	// Key the cache off the algorithm the value was actually observed under;
	// compute may have downgraded a content algorithm to mtime.
	result := m.evaluate(observed.Algorithm, observed, st)
	st.is = observed.String()
	m.last = st
	m.flush()
	return result, nil
}

// evaluate compares observed against the cache entry for algo and updates
// the cache. First sight stores silently; a mismatch overwrites and reports
// Changed exactly once.
func (m *Monitor) evaluate(algo fingerprint.Algorithm, observed fingerprint.Fingerprint, st *observation) Result {
	entry, ok := m.cache.Get(algo)
	if !ok {
		m.cache.Set(algo, observed)
		st.freshlyCached = true
		return Result{Outcome: NoChange, Fingerprint: observed}
	}
	if entry.Equal(observed) {
		return Result{Outcome: NoChange, Fingerprint: observed}
	}
	m.cache.Set(algo, observed)
	st.prior = entry.String()
	return Result{Outcome: Changed, Fingerprint: observed, Prior: entry}
}

// InSync reports whether the object's current fingerprint under algo matches
// the cached one. An algorithm with no cache entry is always in sync. The
// cache is not updated; use Retrieve to record observations.
func (m *Monitor) InSync(algo fingerprint.Algorithm) (bool, error) {
	m.hydrate()

	canonical, err := fingerprint.ParseAlgorithm(string(algo))
	if err != nil {
		return false, err
	}
	entry, ok := m.cache.Get(canonical)
	if !ok {
		return true, nil
	}

	info, err := m.res.Stat()
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", m.res.Path(), err)
	}
	observed, err := fingerprint.Compute(fingerprint.Effective(canonical, info), info, m.res.Path())
	if err != nil {
		return false, err
	}
	return entry.Equal(observed), nil
}

// Assign accepts either a bare algorithm token, which selects the algorithm
// for future comparisons, or a tagged "{algorithm}value" string, which is
// decomposed and injected straight into the cache as a pre-known fingerprint
// so the computer need not be invoked.
func (m *Monitor) Assign(value string) error {
	m.hydrate()

	if fingerprint.IsTagged(value) {
		fp, err := fingerprint.Parse(value)
		if err != nil {
			return err
		}
		if prior, ok := m.cache.Get(fp.Algorithm); ok {
			m.prior = &prior
		} else {
			m.prior = nil
		}
		m.cache.Set(fp.Algorithm, fp)
		m.assigned = &fp
		m.algo = fp.Algorithm
		m.flush()
		return nil
	}

	algo, err := fingerprint.ParseAlgorithm(value)
	if err != nil {
		return err
	}
	m.algo = algo
	return nil
}

// Reconcile forces the most recently assigned value through the evaluator.
// If it genuinely superseded a different cached value, the change is
// surfaced; if the cache already held the same value, this is a no-op, so
// two collaborators assigning the same value in one cycle emit one event.
func (m *Monitor) Reconcile() (Result, error) {
	if m.assigned == nil {
		return Result{}, fmt.Errorf("%w: reconcile called with no assigned value", ErrInconsistentState)
	}
	assigned := *m.assigned
	prior := m.prior
	m.assigned = nil
	m.prior = nil

	// Exact equality, not Equal: re-assigning the no-checksum sentinel is
	// still a duplicate, not a divergence.
	if prior == nil || *prior == assigned {
		slog.Debug("reconcile: assigned value already cached, suppressing event", "path", m.res.Path(), "fingerprint", assigned)
		return Result{Outcome: NoChange, Fingerprint: assigned}, nil
	}
	m.last = &observation{is: assigned.String(), should: assigned.Algorithm, prior: prior.String()}
	return Result{Outcome: Changed, Fingerprint: assigned, Prior: *prior}, nil
}

// ChangeDescription renders a human-readable summary of the last observation
// for the event bus. It distinguishes a value becoming defined, becoming
// undefined, and changing; it is not meant to be machine-parsed.
func (m *Monitor) ChangeDescription() (string, error) {
	if m.last == nil {
		return "", fmt.Errorf("%w: no observation recorded", ErrInconsistentState)
	}
	st := m.last
	switch {
	case st.is == fingerprint.Absent && st.prior != "":
		return fmt.Sprintf("fingerprint undefined, was '%s'", st.prior), nil
	case st.is == fingerprint.Absent:
		return "fingerprint undefined", nil
	case st.freshlyCached:
		return fmt.Sprintf("fingerprint defined as '%s'", st.is), nil
	case st.prior != "":
		return fmt.Sprintf("fingerprint changed '%s' to '%s'", st.prior, st.is), nil
	default:
		return fmt.Sprintf("fingerprint in sync at '%s'", st.is), nil
	}
}

// Observed returns the raw observed value of the last retrieval: a tagged
// fingerprint, the absent sentinel, or "" before the first retrieval.
func (m *Monitor) Observed() string {
	if m.last == nil {
		return ""
	}
	return m.last.is
}
