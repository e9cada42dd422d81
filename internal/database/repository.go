package database

type MusicroomRepository interface {
	Ping() error
	ListRooms() ([]Room, error)
	GetRoomByCode(code string) (Room, error)
	GetRoomByHost(host string) (Room, error)
	UpsertRoom(params UpsertRoomParams) (Room, bool, error)
	UpdateRoom(params UpdateRoomParams) (Room, error)
	DeleteRoomByHost(host string) error
	CreateSession(id string) (Session, error)
	GetSession(id string) (Session, error)
	SetSessionRoomCode(id, code string) error
	ClearSessionRoomCode(id string) error
	GetTokensBySessionId(sessionId string) (SpotifyToken, error)
	UpsertTokens(params UpsertTokenParams) (SpotifyToken, error)
}
