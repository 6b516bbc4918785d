package depot

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
)

// Warehouse is a policy-bounded, append-only list of stored files.
// It is safe for concurrent use.
type Warehouse struct {
	policy Policy

	mu    sync.RWMutex
	files []File
}

func newWarehouse(p Policy) *Warehouse {
	p.AllowedTypes = slices.Clone(p.AllowedTypes)
	return &Warehouse{policy: p}
}

// Name returns the warehouse name.
func (w *Warehouse) Name() string {
	return w.policy.Name
}

// Policy returns a copy of the warehouse policy.
func (w *Warehouse) Policy() Policy {
	p := w.policy
	p.AllowedTypes = slices.Clone(p.AllowedTypes)
	return p
}

// Len returns the number of stored files.
func (w *Warehouse) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.files)
}

// Full reports whether the warehouse already holds MaxFiles files.
func (w *Warehouse) Full() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.files) >= w.policy.MaxFiles
}

// Files returns a snapshot of the stored files in upload order.
func (w *Warehouse) Files() []File {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return slices.Clone(w.files)
}

// Find performs a scoped lookup of a file by name.
func (w *Warehouse) Find(name string) (File, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.findLocked(name)
}

func (w *Warehouse) findLocked(name string) (File, bool) {
	for _, f := range w.files {
		if f.Name == name {
			return f, true
		}
	}
	return File{}, false
}

// Admit validates a fully received candidate against the warehouse policy and
// appends it on success. Checks run in a fixed order so that a candidate failing
// several of them always gets the same error:
//  1. file count already at MaxFiles: ErrCapacityExceeded
//  2. size above MaxSize: ErrFileTooLarge
//  3. content type not whitelisted: ErrTypeNotAllowed
//  4. name already present in this warehouse: ErrDuplicateName
//
// The whole check-then-append sequence holds the write lock, so concurrent
// admissions can never push the file count past MaxFiles.
func (w *Warehouse) Admit(c Candidate) (File, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.files) >= w.policy.MaxFiles {
		return File{}, fmt.Errorf("admit %s into %s: %w", c.Name, w.policy.Name, ErrCapacityExceeded)
	}

	if c.Size > w.policy.MaxSize {
		return File{}, fmt.Errorf("admit %s into %s: %w", c.Name, w.policy.Name, ErrFileTooLarge)
	}

	if !w.policy.Allows(c.ContentType) {
		return File{}, fmt.Errorf("admit %s into %s: %w: %q", c.Name, w.policy.Name, ErrTypeNotAllowed, c.ContentType)
	}

	if _, exists := w.findLocked(c.Name); exists {
		return File{}, fmt.Errorf("admit %s into %s: %w", c.Name, w.policy.Name, ErrDuplicateName)
	}

	f := File{
		Name:        c.Name,
		Size:        c.Size,
		ContentType: strings.TrimSpace(c.ContentType),
		Location:    c.Location,
		UploadedAt:  time.Now().UTC(),
	}
	w.files = append(w.files, f)

	return f, nil
}

func (w *Warehouse) summarize(placeholder bool) WarehouseSummary {
	w.mu.RLock()
	defer w.mu.RUnlock()

	names := make([]string, 0, len(w.files))
	var used int64
	for _, f := range w.files {
		names = append(names, f.Name)
		used += f.Size
	}
	if len(names) == 0 && placeholder {
		names = append(names, "")
	}

	return WarehouseSummary{
		Name:         w.policy.Name,
		MaxSize:      w.policy.MaxSize,
		AllowedTypes: slices.Clone(w.policy.AllowedTypes),
		MaxFiles:     w.policy.MaxFiles,
		FileCount:    len(w.files),
		UsedStorage:  used,
		FileNames:    names,
	}
}

// Registry is the fixed set of warehouses. The set itself never changes after
// NewRegistry returns; only warehouse file lists are mutated, through Admit.
type Registry struct {
	order      []string
	warehouses map[string]*Warehouse
}

// NewRegistry builds a registry from policies, preserving their order.
func NewRegistry(policies []Policy) (*Registry, error) {
	if len(policies) == 0 {
		return nil, fmt.Errorf("new registry: %w: no warehouses configured", ErrInvalidInput)
	}

	r := &Registry{
		order:      make([]string, 0, len(policies)),
		warehouses: make(map[string]*Warehouse, len(policies)),
	}

	for _, p := range policies {
		if err := validatePolicy(p); err != nil {
			return nil, fmt.Errorf("new registry: %w", err)
		}
		if _, exists := r.warehouses[p.Name]; exists {
			return nil, fmt.Errorf("new registry: %w: duplicate warehouse %q", ErrInvalidInput, p.Name)
		}
		r.order = append(r.order, p.Name)
		r.warehouses[p.Name] = newWarehouse(p)
	}

	return r, nil
}

func validatePolicy(p Policy) error {
	if !IsValidWarehouseName(p.Name) {
		return fmt.Errorf("%w: invalid warehouse name %q", ErrInvalidInput, p.Name)
	}
	if p.MaxFiles < 1 {
		return fmt.Errorf("%w: warehouse %s: max files must be at least 1", ErrInvalidInput, p.Name)
	}
	if p.MaxSize < 1 {
		return fmt.Errorf("%w: warehouse %s: max size must be at least 1", ErrInvalidInput, p.Name)
	}
	if len(p.AllowedTypes) == 0 {
		return fmt.Errorf("%w: warehouse %s: no allowed types", ErrInvalidInput, p.Name)
	}
	for _, t := range p.AllowedTypes {
		if NormalizeMediaType(t) == "" {
			return fmt.Errorf("%w: warehouse %s: invalid media type %q", ErrInvalidInput, p.Name, t)
		}
	}
	return nil
}

// Lookup resolves a warehouse by name.
func (r *Registry) Lookup(name string) (*Warehouse, error) {
	w, ok := r.warehouses[name]
	if !ok {
		return nil, fmt.Errorf("lookup %q: %w", name, ErrUnknownWarehouse)
	}
	return w, nil
}

// Names returns warehouse names in definition order.
func (r *Registry) Names() []string {
	return slices.Clone(r.order)
}

// Policies returns every warehouse policy in definition order.
func (r *Registry) Policies() []Policy {
	policies := make([]Policy, 0, len(r.order))
	for _, name := range r.order {
		policies = append(policies, r.warehouses[name].Policy())
	}
	return policies
}

// Find performs a global lookup: warehouses are searched in definition order
// and the first file with a matching name wins.
func (r *Registry) Find(name string) (FileInfo, error) {
	for _, wname := range r.order {
		if f, ok := r.warehouses[wname].Find(name); ok {
			return FileInfo{
				Name:      f.Name,
				Size:      f.Size,
				Warehouse: wname,
				Type:      f.ContentType,
			}, nil
		}
	}
	return FileInfo{}, fmt.Errorf("find %q: %w", name, ErrNotFound)
}

// Summarize reports the status of every warehouse. When placeholder is set,
// an empty warehouse lists a single empty file name instead of none.
func (r *Registry) Summarize(placeholder bool) Summary {
	summary := make(Summary, 0, len(r.order))
	for _, name := range r.order {
		summary = append(summary, r.warehouses[name].summarize(placeholder))
	}
	return summary
}

// OutcomeOf maps an Admit error to the journal outcome.
// It reports false for errors that are not admission decisions.
func OutcomeOf(err error) (Outcome, bool) {
	switch {
	case err == nil:
		return OutcomeAdmitted, true
	case errors.Is(err, ErrCapacityExceeded):
		return OutcomeCapacityExceeded, true
	case errors.Is(err, ErrFileTooLarge):
		return OutcomeFileTooLarge, true
	case errors.Is(err, ErrTypeNotAllowed):
		return OutcomeTypeNotAllowed, true
	case errors.Is(err, ErrDuplicateName):
		return OutcomeDuplicateName, true
	default:
		return "", false
	}
}
