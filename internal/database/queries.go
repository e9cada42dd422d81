package database

import (
	"database/sql"
	"time"
)

const roomColumns = "id, code, host, guest_can_pause, votes_to_skip, created_at, updated_at"

func scanRoom(row *sql.Row) (Room, error) {
	var room Room
	err := row.Scan(
		&room.Id,
		&room.Code,
		&room.Host,
		&room.GuestCanPause,
		&room.VotesToSkip,
		&room.CreatedAt,
		&room.UpdatedAt,
	)

	return room, err
}

func (db *PgMusicroomRepository) ListRooms() ([]Room, error) {
	rows, err := db.conn.Query(
		"SELECT " + roomColumns + " FROM rooms ORDER BY created_at",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms = make([]Room, 0)
	for rows.Next() {
		var room Room
		if err = rows.Scan(
			&room.Id,
			&room.Code,
			&room.Host,
			&room.GuestCanPause,
			&room.VotesToSkip,
			&room.CreatedAt,
			&room.UpdatedAt,
		); err != nil {
			break
		}

		rooms = append(rooms, room)
	}

	return rooms, err
}

func (db *PgMusicroomRepository) GetRoomByCode(code string) (Room, error) {
	row := db.conn.QueryRow(
		"SELECT "+roomColumns+" FROM rooms WHERE code = $1 LIMIT 1",
		code,
	)

	return scanRoom(row)
}

func (db *PgMusicroomRepository) GetRoomByHost(host string) (Room, error) {
	row := db.conn.QueryRow(
		"SELECT "+roomColumns+" FROM rooms WHERE host = $1 LIMIT 1",
		host,
	)

	return scanRoom(row)
}

// UpsertRoom inserts a room for the host or, if the host already has one,
// updates its mutable fields in a single statement. The bool result reports
// whether a new row was inserted. The unique constraint on host makes
// concurrent create-room calls from one session collapse to a single row.
func (db *PgMusicroomRepository) UpsertRoom(params UpsertRoomParams) (Room, bool, error) {
	now := time.Now().UTC()
	row := db.conn.QueryRow(
		"INSERT INTO rooms (code, host, guest_can_pause, votes_to_skip, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $5, $5) "+
			"ON CONFLICT (host) DO UPDATE SET "+
			"guest_can_pause = EXCLUDED.guest_can_pause, votes_to_skip = EXCLUDED.votes_to_skip, updated_at = EXCLUDED.updated_at "+
			"RETURNING "+roomColumns+", (xmax = 0) AS inserted",
		params.Code,
		params.Host,
		params.GuestCanPause,
		params.VotesToSkip,
		now,
	)

	var room Room
	var inserted bool
	err := row.Scan(
		&room.Id,
		&room.Code,
		&room.Host,
		&room.GuestCanPause,
		&room.VotesToSkip,
		&room.CreatedAt,
		&room.UpdatedAt,
		&inserted,
	)

	return room, inserted, err
}

func (db *PgMusicroomRepository) UpdateRoom(params UpdateRoomParams) (Room, error) {
	row := db.conn.QueryRow(
		"UPDATE rooms SET guest_can_pause = $2, votes_to_skip = $3, updated_at = $4 "+
			"WHERE code = $1 RETURNING "+roomColumns,
		params.Code,
		params.GuestCanPause,
		params.VotesToSkip,
		time.Now().UTC(),
	)

	return scanRoom(row)
}

func (db *PgMusicroomRepository) DeleteRoomByHost(host string) error {
	_, err := db.conn.Exec("DELETE FROM rooms WHERE host = $1", host)

	return err
}

func (db *PgMusicroomRepository) CreateSession(id string) (Session, error) {
	row := db.conn.QueryRow(
		"INSERT INTO sessions (id, created_at, updated_at) VALUES ($1, $2, $2) "+
			"RETURNING id, created_at, updated_at",
		id,
		time.Now().UTC(),
	)

	var sess Session
	err := row.Scan(&sess.Id, &sess.CreatedAt, &sess.UpdatedAt)

	return sess, err
}

func (db *PgMusicroomRepository) GetSession(id string) (Session, error) {
	row := db.conn.QueryRow(
		"SELECT id, room_code, created_at, updated_at FROM sessions WHERE id = $1 LIMIT 1",
		id,
	)

	var sess Session
	var roomCode sql.NullString
	err := row.Scan(&sess.Id, &roomCode, &sess.CreatedAt, &sess.UpdatedAt)
	sess.RoomCode = roomCode.String

	return sess, err
}

func (db *PgMusicroomRepository) SetSessionRoomCode(id, code string) error {
	_, err := db.conn.Exec(
		"UPDATE sessions SET room_code = $2, updated_at = $3 WHERE id = $1",
		id,
		code,
		time.Now().UTC(),
	)

	return err
}

func (db *PgMusicroomRepository) ClearSessionRoomCode(id string) error {
	_, err := db.conn.Exec(
		"UPDATE sessions SET room_code = NULL, updated_at = $2 WHERE id = $1",
		id,
		time.Now().UTC(),
	)

	return err
}

func (db *PgMusicroomRepository) GetTokensBySessionId(sessionId string) (SpotifyToken, error) {
	row := db.conn.QueryRow(
		"SELECT id, session_id, access_token, refresh_token, token_type, expires_at, created_at, updated_at "+
			"FROM spotify_tokens WHERE session_id = $1 LIMIT 1",
		sessionId,
	)

	var tok SpotifyToken
	err := row.Scan(
		&tok.Id,
		&tok.SessionId,
		&tok.AccessToken,
		&tok.RefreshToken,
		&tok.TokenType,
		&tok.ExpiresAt,
		&tok.CreatedAt,
		&tok.UpdatedAt,
	)

	return tok, err
}

func (db *PgMusicroomRepository) UpsertTokens(params UpsertTokenParams) (SpotifyToken, error) {
	now := time.Now().UTC()
	row := db.conn.QueryRow(
		"INSERT INTO spotify_tokens (session_id, access_token, refresh_token, token_type, expires_at, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6, $6) "+
			"ON CONFLICT (session_id) DO UPDATE SET "+
			"access_token = EXCLUDED.access_token, refresh_token = EXCLUDED.refresh_token, "+
			"token_type = EXCLUDED.token_type, expires_at = EXCLUDED.expires_at, updated_at = EXCLUDED.updated_at "+
			"RETURNING id, session_id, access_token, refresh_token, token_type, expires_at, created_at, updated_at",
		params.SessionId,
		params.AccessToken,
		params.RefreshToken,
		params.TokenType,
		params.ExpiresAt,
		now,
	)

	var tok SpotifyToken
	err := row.Scan(
		&tok.Id,
		&tok.SessionId,
		&tok.AccessToken,
		&tok.RefreshToken,
		&tok.TokenType,
		&tok.ExpiresAt,
		&tok.CreatedAt,
		&tok.UpdatedAt,
	)

	return tok, err
}
