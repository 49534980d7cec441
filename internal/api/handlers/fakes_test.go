package handlers

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fasalvaidya/crop-health/internal/health"
	"github.com/fasalvaidya/crop-health/internal/models"
	"github.com/fasalvaidya/crop-health/internal/repository"
)

// fakeScans is an in-memory ScanStore with the same farmer scoping and id
// ordering as the SQL stores.
type fakeScans struct {
	mu        sync.Mutex
	scans     []models.Scan
	byIDCalls int
	lastLimit int
	err       error
	nextID    int64
}

func (f *fakeScans) owned(farmerID uuid.UUID, cropID *int) []models.Scan {
	var out []models.Scan
	for _, s := range f.scans {
		if s.FarmerID == farmerID && (cropID == nil || s.CropID == *cropID) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeScans) GetByID(_ context.Context, farmerID uuid.UUID, scanID int64) (*models.Scan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byIDCalls++
	for _, s := range f.scans {
		if s.ID == scanID && s.FarmerID == farmerID {
			s := s
			return &s, nil
		}
	}
	return nil, nil
}

func (f *fakeScans) GetPrevious(_ context.Context, scan *models.Scan) (*models.Scan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var prev *models.Scan
	for _, s := range f.owned(scan.FarmerID, &scan.CropID) {
		if s.ID < scan.ID {
			s := s
			prev = &s
		}
	}
	return prev, nil
}

func (f *fakeScans) GetBaseline(_ context.Context, scan *models.Scan) (*models.Scan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	owned := f.owned(scan.FarmerID, &scan.CropID)
	if len(owned) == 0 || owned[0].ID == scan.ID {
		return nil, nil
	}
	return &owned[0], nil
}

func (f *fakeScans) GetLatest(_ context.Context, farmerID uuid.UUID, cropID *int) (*models.Scan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	owned := f.owned(farmerID, cropID)
	if len(owned) == 0 {
		return nil, nil
	}
	return &owned[len(owned)-1], nil
}

func (f *fakeScans) ListRecent(_ context.Context, farmerID uuid.UUID, cropID *int, limit int) ([]models.Scan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastLimit = limit
	owned := f.owned(farmerID, cropID)
	out := make([]models.Scan, 0, limit)
	for i := len(owned) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, owned[i])
	}
	return out, nil
}

func (f *fakeScans) BulkInsert(_ context.Context, scans []models.Scan, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for i := range scans {
		f.nextID++
		scans[i].ID = 1000 + f.nextID
		f.scans = append(f.scans, scans[i])
	}
	return nil
}

type fakeFarmers map[uuid.UUID]models.FarmerInfo

func (f fakeFarmers) GetFarmer(_ context.Context, farmerID uuid.UUID) (*models.FarmerInfo, error) {
	info, ok := f[farmerID]
	if !ok {
		return nil, nil
	}
	return &info, nil
}

type fakeImports struct {
	mu      sync.Mutex
	imports map[uuid.UUID]*models.ScanImport
}

func newFakeImports() *fakeImports {
	return &fakeImports{imports: make(map[uuid.UUID]*models.ScanImport)}
}

func (f *fakeImports) Create(_ context.Context, imp *models.ScanImport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *imp
	f.imports[imp.ID] = &cp
	return nil
}

func (f *fakeImports) GetByID(_ context.Context, farmerID, importID uuid.UUID) (*models.ScanImport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if imp, ok := f.imports[importID]; ok && imp.FarmerID == farmerID {
		cp := *imp
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeImports) GetByContentHash(_ context.Context, farmerID uuid.UUID, hash string) (*models.ScanImport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, imp := range f.imports {
		if imp.FarmerID == farmerID && imp.ContentHash != nil && *imp.ContentHash == hash && imp.Status == ImportCompleted {
			cp := *imp
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeImports) Update(_ context.Context, imp *models.ScanImport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.imports[imp.ID]; !ok {
		return errors.New("scan import not found")
	}
	cp := *imp
	f.imports[imp.ID] = &cp
	return nil
}

func (f *fakeImports) get(id uuid.UUID) *models.ScanImport {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.imports[id]
}

// fakeClaims mirrors the idempotency_keys primary key.
type fakeClaims struct {
	mu   sync.Mutex
	keys map[string]uuid.UUID
}

func (f *fakeClaims) Claim(_ context.Context, farmerID uuid.UUID, key, resourceType string, resourceID uuid.UUID) (*repository.IdempotencyResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.keys == nil {
		f.keys = make(map[string]uuid.UUID)
	}
	k := farmerID.String() + "|" + key + "|" + resourceType
	if existing, ok := f.keys[k]; ok {
		return &repository.IdempotencyResult{AlreadyExists: true, ResourceID: existing}, nil
	}
	f.keys[k] = resourceID
	return &repository.IdempotencyResult{ResourceID: resourceID}, nil
}

type fakeActivator struct {
	source    *memorySource
	version   int
	createdBy *uuid.UUID
}

func (f *fakeActivator) Activate(_ context.Context, cfg *health.Config, description string, createdBy *uuid.UUID) (*models.ThresholdConfig, error) {
	f.version++
	f.createdBy = createdBy
	next := *cfg
	next.Version = fmt.Sprintf("db-%d", f.version)
	f.source.set(&next)
	return &models.ThresholdConfig{
		ID:          uuid.New(),
		Version:     f.version,
		Description: description,
		IsActive:    true,
		CreatedBy:   createdBy,
		CreatedAt:   time.Now(),
	}, nil
}

// memorySource is a health.Source backed by a settable config.
type memorySource struct {
	mu  sync.Mutex
	cfg *health.Config
}

func (m *memorySource) set(cfg *health.Config) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg = cfg
}

func (m *memorySource) Load(context.Context) (*health.Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cfg == nil {
		return nil, errors.New("nothing stored")
	}
	return m.cfg, nil
}

type recordingRecorder struct {
	mu      sync.Mutex
	hits    int
	misses  int
	reloads []string
	imports map[string]int
	rows    int
}

func (r *recordingRecorder) RecordCacheLookup(hit bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if hit {
		r.hits++
	} else {
		r.misses++
	}
}

func (r *recordingRecorder) RecordReload(trigger string, _ *health.Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reloads = append(r.reloads, trigger)
}

func (r *recordingRecorder) RecordImport(status string, rows int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.imports == nil {
		r.imports = make(map[string]int)
	}
	r.imports[status]++
	r.rows += rows
}
