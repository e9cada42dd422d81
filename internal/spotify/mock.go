package spotify

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockPlayerService struct {
	mock.Mock
}

func (m *MockPlayerService) AuthURL(state string) string {
	args := m.Called(state)
	return args.String(0)
}
func (m *MockPlayerService) Exchange(ctx context.Context, sessionId, code string) error {
	args := m.Called(sessionId, code)
	return args.Error(0)
}
func (m *MockPlayerService) Status(ctx context.Context, sessionId string) (AuthStatus, error) {
	args := m.Called(sessionId)
	return args.Get(0).(AuthStatus), args.Error(1)
}
func (m *MockPlayerService) Refresh(ctx context.Context, sessionId string) error {
	args := m.Called(sessionId)
	return args.Error(0)
}
func (m *MockPlayerService) Play(ctx context.Context, sessionId, songId string) error {
	args := m.Called(sessionId, songId)
	return args.Error(0)
}
func (m *MockPlayerService) Pause(ctx context.Context, sessionId string) error {
	args := m.Called(sessionId)
	return args.Error(0)
}
func (m *MockPlayerService) Skip(ctx context.Context, sessionId string) error {
	args := m.Called(sessionId)
	return args.Error(0)
}
func (m *MockPlayerService) CurrentlyPlaying(ctx context.Context, sessionId string) (*PlaybackState, error) {
	args := m.Called(sessionId)
	if state, ok := args.Get(0).(*PlaybackState); ok {
		return state, args.Error(1)
	}
	return nil, args.Error(1)
}
