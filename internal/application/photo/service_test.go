package photo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fest-portal-api/internal/application/file"
	"github.com/fest-portal-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockPhotoStore struct{ mock.Mock }

func (m *mockPhotoStore) Create(ctx context.Context, p *domain.Photo) error {
	return m.Called(ctx, p).Error(0)
}
func (m *mockPhotoStore) Get(ctx context.Context, photoID string) (*domain.Photo, error) {
	args := m.Called(ctx, photoID)
	if p, _ := args.Get(0).(*domain.Photo); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockPhotoStore) ListByClub(ctx context.Context, clubID string) ([]domain.Photo, error) {
	args := m.Called(ctx, clubID)
	photos, _ := args.Get(0).([]domain.Photo)
	return photos, args.Error(1)
}
func (m *mockPhotoStore) Delete(ctx context.Context, photoID string) error {
	return m.Called(ctx, photoID).Error(0)
}

type mockClubStore struct{ mock.Mock }

func (m *mockClubStore) Get(ctx context.Context, clubID string) (*domain.Club, error) {
	args := m.Called(ctx, clubID)
	if c, _ := args.Get(0).(*domain.Club); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockMedia struct{ mock.Mock }

func (m *mockMedia) Put(ctx context.Context, folder string, in file.UploadInput) (*file.Stored, error) {
	args := m.Called(ctx, folder, in)
	if s, _ := args.Get(0).(*file.Stored); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockMedia) Discard(ctx context.Context, key *string) { m.Called(ctx, key) }

var (
	owner    = domain.Actor{UserID: "c1", Role: domain.RoleCoordinator}
	stranger = domain.Actor{UserID: "c2", Role: domain.RoleCoordinator}
)

func newService(ps *mockPhotoStore, cs *mockClubStore, md *mockMedia) Service {
	return NewService(ServiceDeps{
		PhotoRepo: ps, ClubRepo: cs, Media: md,
		Clock: func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) },
	})
}

func TestUpload_DefaultCaption(t *testing.T) {
	cs := &mockClubStore{}
	cs.On("Get", mock.Anything, "k1").Return(&domain.Club{ClubID: "k1", Name: "Drama", CoordinatorID: "c1"}, nil)
	md := &mockMedia{}
	md.On("Put", mock.Anything, "club_photos", mock.Anything).Return(&file.Stored{URL: "https://cdn/p.jpg", Key: "fest/club_photos/p.jpg"}, nil)
	ps := &mockPhotoStore{}
	ps.On("Create", mock.Anything, mock.AnythingOfType("*domain.Photo")).Return(nil)

	p, err := newService(ps, cs, md).Upload(context.Background(), owner, "k1", "", file.UploadInput{Filename: "p.jpg"})

	require.NoError(t, err)
	assert.Equal(t, "Drama Photo", p.Caption)
	assert.Equal(t, "c1", p.UploadedBy)
	assert.Equal(t, "https://cdn/p.jpg", p.URL)
}

func TestUpload_ForbiddenForStranger(t *testing.T) {
	cs := &mockClubStore{}
	cs.On("Get", mock.Anything, "k1").Return(&domain.Club{ClubID: "k1", CoordinatorID: "c1"}, nil)
	md := &mockMedia{}

	_, err := newService(&mockPhotoStore{}, cs, md).Upload(context.Background(), stranger, "k1", "cap", file.UploadInput{Filename: "p.jpg"})

	assert.True(t, errors.Is(err, domain.ErrForbidden))
	md.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpload_UnknownClub(t *testing.T) {
	cs := &mockClubStore{}
	cs.On("Get", mock.Anything, "k1").Return(nil, domain.ErrNotFound)

	_, err := newService(&mockPhotoStore{}, cs, &mockMedia{}).Upload(context.Background(), owner, "k1", "", file.UploadInput{})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestUpload_DBFailureDiscardsObject(t *testing.T) {
	cs := &mockClubStore{}
	cs.On("Get", mock.Anything, "k1").Return(&domain.Club{ClubID: "k1", CoordinatorID: "c1"}, nil)
	key := "fest/club_photos/p.jpg"
	md := &mockMedia{}
	md.On("Put", mock.Anything, "club_photos", mock.Anything).Return(&file.Stored{URL: "u", Key: key}, nil)
	md.On("Discard", mock.Anything, &key).Return()
	ps := &mockPhotoStore{}
	ps.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))

	_, err := newService(ps, cs, md).Upload(context.Background(), owner, "k1", "cap", file.UploadInput{Filename: "p.jpg"})

	assert.EqualError(t, err, "db down")
	md.AssertExpectations(t)
}

func TestDelete_AdminRemovesObjectAndRow(t *testing.T) {
	ps := &mockPhotoStore{}
	ps.On("Get", mock.Anything, "p1").Return(&domain.Photo{PhotoID: "p1", ClubID: "k1", Key: "fest/club_photos/p.jpg"}, nil)
	ps.On("Delete", mock.Anything, "p1").Return(nil)
	cs := &mockClubStore{}
	cs.On("Get", mock.Anything, "k1").Return(&domain.Club{ClubID: "k1", CoordinatorID: "c1"}, nil)
	md := &mockMedia{}
	md.On("Discard", mock.Anything, mock.MatchedBy(func(k *string) bool { return *k == "fest/club_photos/p.jpg" })).Return()

	err := newService(ps, cs, md).Delete(context.Background(), domain.Actor{UserID: "a", Role: domain.RoleAdmin}, "p1")

	require.NoError(t, err)
	md.AssertExpectations(t)
	ps.AssertExpectations(t)
}

func TestDelete_ForbiddenForStranger(t *testing.T) {
	ps := &mockPhotoStore{}
	ps.On("Get", mock.Anything, "p1").Return(&domain.Photo{PhotoID: "p1", ClubID: "k1"}, nil)
	cs := &mockClubStore{}
	cs.On("Get", mock.Anything, "k1").Return(&domain.Club{ClubID: "k1", CoordinatorID: "c1"}, nil)

	err := newService(ps, cs, &mockMedia{}).Delete(context.Background(), stranger, "p1")

	assert.True(t, errors.Is(err, domain.ErrForbidden))
	ps.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestList_NewestFirstPassthrough(t *testing.T) {
	ps := &mockPhotoStore{}
	ps.On("ListByClub", mock.Anything, "k1").Return([]domain.Photo{{PhotoID: "p2"}, {PhotoID: "p1"}}, nil)

	photos, err := newService(ps, &mockClubStore{}, &mockMedia{}).List(context.Background(), "k1")

	require.NoError(t, err)
	assert.Equal(t, "p2", photos[0].PhotoID)
}
