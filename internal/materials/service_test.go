package materials

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/tlaloc-sg/tlaloc-erp/internal/shared"
)

type memoryRepo struct {
	nextID    int64
	materials map[int64]Material
	boms      map[int64][]BOMLine
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{nextID: 1, materials: map[int64]Material{}, boms: map[int64][]BOMLine{}}
}

func (m *memoryRepo) List(context.Context) ([]Material, error) {
	var out []Material
	for _, mat := range m.materials {
		out = append(out, mat)
	}
	return out, nil
}

func (m *memoryRepo) Get(_ context.Context, id int64) (Material, error) {
	mat, ok := m.materials[id]
	if !ok {
		return Material{}, shared.ErrNotFound
	}
	return mat, nil
}

func (m *memoryRepo) Exists(_ context.Context, id int64) (bool, error) {
	mat, ok := m.materials[id]
	return ok && mat.IsActive, nil
}

func (m *memoryRepo) Create(_ context.Context, mat Material) (Material, error) {
	mat.ID = m.nextID
	m.nextID++
	m.materials[mat.ID] = mat
	return mat, nil
}

func (m *memoryRepo) Update(_ context.Context, id int64, mat Material) error {
	if _, ok := m.materials[id]; !ok {
		return shared.ErrNotFound
	}
	mat.ID = id
	m.materials[id] = mat
	return nil
}

func (m *memoryRepo) ProductBOM(_ context.Context, productID int64) ([]BOMLine, error) {
	return m.boms[productID], nil
}

func (m *memoryRepo) ReplaceProductBOM(_ context.Context, productID int64, lines []BOMLine) error {
	m.boms[productID] = lines
	return nil
}

func seedMaterial(t *testing.T, svc *Service, code string) Material {
	t.Helper()
	mat, err := svc.Create(context.Background(), Material{Code: code, Name: "Tube " + code, Unit: "m", IsActive: true})
	require.NoError(t, err)
	return mat
}

func TestCreateNormalizesCodeAndDefaultsUnit(t *testing.T) {
	svc := NewService(newMemoryRepo())

	mat, err := svc.Create(context.Background(), Material{Code: " pvc-16 ", Name: "PVC 16mm"})
	require.NoError(t, err)
	require.Equal(t, "PVC-16", mat.Code)
	require.Equal(t, "pz", mat.Unit)
}

func TestCreateRequiresCodeAndName(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.Create(context.Background(), Material{Name: "PVC"})
	require.ErrorIs(t, err, ErrInvalidMaterial)

	_, err = svc.Create(context.Background(), Material{Code: "PVC-16"})
	require.ErrorIs(t, err, ErrInvalidMaterial)
}

func TestReplaceProductBOM(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	a := seedMaterial(t, svc, "PVC-16")
	b := seedMaterial(t, svc, "DRIP-EMT")

	err := svc.ReplaceProductBOM(context.Background(), 10, []BOMLine{
		{MaterialID: a.ID, QtyPerUnit: decimal.RequireFromString("2.5")},
		{MaterialID: b.ID, QtyPerUnit: decimal.NewFromInt(12)},
	})
	require.NoError(t, err)

	lines, err := svc.ProductBOM(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, lines, 2)
}

func TestReplaceProductBOMRejectsDuplicates(t *testing.T) {
	svc := NewService(newMemoryRepo())
	a := seedMaterial(t, svc, "PVC-16")

	err := svc.ReplaceProductBOM(context.Background(), 10, []BOMLine{
		{MaterialID: a.ID, QtyPerUnit: decimal.NewFromInt(1)},
		{MaterialID: a.ID, QtyPerUnit: decimal.NewFromInt(2)},
	})
	require.ErrorIs(t, err, ErrInvalidMaterial)
}

func TestReplaceProductBOMRejectsNonPositiveQty(t *testing.T) {
	svc := NewService(newMemoryRepo())
	a := seedMaterial(t, svc, "PVC-16")

	err := svc.ReplaceProductBOM(context.Background(), 10, []BOMLine{
		{MaterialID: a.ID, QtyPerUnit: decimal.Zero},
	})
	require.ErrorIs(t, err, ErrInvalidMaterial)
}

func TestReplaceProductBOMUnknownMaterial(t *testing.T) {
	svc := NewService(newMemoryRepo())

	err := svc.ReplaceProductBOM(context.Background(), 10, []BOMLine{
		{MaterialID: 404, QtyPerUnit: decimal.NewFromInt(1)},
	})
	require.ErrorIs(t, err, shared.ErrNotFound)
}
