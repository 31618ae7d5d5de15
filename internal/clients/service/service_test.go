package service

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"fieldops_backend/internal/clients/repository"
	"fieldops_backend/internal/visits/domain"
	"fieldops_backend/platform/apperr"
)

type stubRepo struct {
	created   []repository.CreateClientParams
	locations []repository.CreateLocationParams
	clients   map[uuid.UUID]repository.Client
}

func newStubRepo() *stubRepo {
	return &stubRepo{clients: map[uuid.UUID]repository.Client{}}
}

func (r *stubRepo) Create(_ context.Context, params repository.CreateClientParams) (repository.Client, error) {
	r.created = append(r.created, params)
	c := repository.Client{ID: uuid.New(), Name: params.Name, Email: params.Email, Phone: params.Phone}
	r.clients[c.ID] = c
	return c, nil
}

func (r *stubRepo) Update(_ context.Context, params repository.UpdateClientParams) (repository.Client, error) {
	c, ok := r.clients[params.ID]
	if !ok {
		return repository.Client{}, apperr.NotFound("client not found")
	}
	if params.Phone != nil {
		c.Phone = params.Phone
	}
	r.clients[params.ID] = c
	return c, nil
}

func (r *stubRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Client, error) {
	c, ok := r.clients[id]
	if !ok {
		return repository.Client{}, apperr.NotFound("client not found")
	}
	return c, nil
}

func (r *stubRepo) List(_ context.Context, _ string, _, _ int) ([]repository.Client, int, error) {
	return nil, 0, nil
}

func (r *stubRepo) AddLocation(_ context.Context, params repository.CreateLocationParams) (repository.Location, error) {
	r.locations = append(r.locations, params)
	return repository.Location{ID: uuid.New(), ClientID: params.ClientID, Label: params.Label}, nil
}

func (r *stubRepo) ListLocations(_ context.Context, _ uuid.UUID) ([]repository.Location, error) {
	return nil, nil
}

func manager() domain.Actor {
	return domain.Actor{ID: uuid.New(), Role: domain.RoleSupervisor}
}

func TestCreateNormalizesPhone(t *testing.T) {
	repo := newStubRepo()
	svc := New(repo)

	raw := "55 1234 5678"
	_, err := svc.Create(context.Background(), manager(), repository.CreateClientParams{Name: "Acme", Phone: &raw})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got := repo.created[0].Phone; got == nil || *got != "+525512345678" {
		t.Fatalf("stored phone = %v, want +525512345678", got)
	}
}

func TestCreateRejectsInvalidPhone(t *testing.T) {
	svc := New(newStubRepo())

	bad := "hola"
	_, err := svc.Create(context.Background(), manager(), repository.CreateClientParams{Name: "Acme", Phone: &bad})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("invalid phone = %v, want validation", err)
	}
}

func TestCreateRequiresManagerRole(t *testing.T) {
	svc := New(newStubRepo())

	tech := domain.Actor{ID: uuid.New(), Role: domain.RoleTechnician}
	_, err := svc.Create(context.Background(), tech, repository.CreateClientParams{Name: "Acme"})
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("technician create = %v, want forbidden", err)
	}
}

func TestAddLocationRequiresBothCoordinates(t *testing.T) {
	repo := newStubRepo()
	svc := New(repo)
	client, _ := repo.Create(context.Background(), repository.CreateClientParams{Name: "Acme"})

	lat := 19.4326
	_, err := svc.AddLocation(context.Background(), manager(), repository.CreateLocationParams{
		ClientID: client.ID,
		Label:    "Planta Norte",
		Latitude: &lat,
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("half-geocoded location = %v, want validation", err)
	}

	lng := -99.1332
	if _, err := svc.AddLocation(context.Background(), manager(), repository.CreateLocationParams{
		ClientID:  client.ID,
		Label:     "Planta Norte",
		Latitude:  &lat,
		Longitude: &lng,
	}); err != nil {
		t.Fatalf("AddLocation: %v", err)
	}
}

func TestAddLocationUnknownClient(t *testing.T) {
	svc := New(newStubRepo())

	_, err := svc.AddLocation(context.Background(), manager(), repository.CreateLocationParams{
		ClientID: uuid.New(),
		Label:    "Bodega",
	})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("unknown client = %v, want not found", err)
	}
}
