package database

import (
	"github.com/stretchr/testify/mock"
)

type MockMusicroomRepository struct {
	mock.Mock
}

func (m *MockMusicroomRepository) Ping() error {
	args := m.Called()
	return args.Error(0)
}
func (m *MockMusicroomRepository) ListRooms() ([]Room, error) {
	args := m.Called()
	return args.Get(0).([]Room), args.Error(1)
}
func (m *MockMusicroomRepository) GetRoomByCode(code string) (Room, error) {
	args := m.Called(code)
	return args.Get(0).(Room), args.Error(1)
}
func (m *MockMusicroomRepository) GetRoomByHost(host string) (Room, error) {
	args := m.Called(host)
	return args.Get(0).(Room), args.Error(1)
}
func (m *MockMusicroomRepository) UpsertRoom(params UpsertRoomParams) (Room, bool, error) {
	args := m.Called(params)
	return args.Get(0).(Room), args.Bool(1), args.Error(2)
}
func (m *MockMusicroomRepository) UpdateRoom(params UpdateRoomParams) (Room, error) {
	args := m.Called(params)
	return args.Get(0).(Room), args.Error(1)
}
func (m *MockMusicroomRepository) DeleteRoomByHost(host string) error {
	args := m.Called(host)
	return args.Error(0)
}
func (m *MockMusicroomRepository) CreateSession(id string) (Session, error) {
	args := m.Called(id)
	return args.Get(0).(Session), args.Error(1)
}
func (m *MockMusicroomRepository) GetSession(id string) (Session, error) {
	args := m.Called(id)
	return args.Get(0).(Session), args.Error(1)
}
func (m *MockMusicroomRepository) SetSessionRoomCode(id, code string) error {
	args := m.Called(id, code)
	return args.Error(0)
}
func (m *MockMusicroomRepository) ClearSessionRoomCode(id string) error {
	args := m.Called(id)
	return args.Error(0)
}
func (m *MockMusicroomRepository) GetTokensBySessionId(sessionId string) (SpotifyToken, error) {
	args := m.Called(sessionId)
	return args.Get(0).(SpotifyToken), args.Error(1)
}
func (m *MockMusicroomRepository) UpsertTokens(params UpsertTokenParams) (SpotifyToken, error) {
	args := m.Called(params)
	return args.Get(0).(SpotifyToken), args.Error(1)
}
