package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/npezzotti/go-musicroom/internal/database"
	"github.com/npezzotti/go-musicroom/internal/types"
)

// maxCodeAttempts bounds the retry loop for room-code collisions.
const maxCodeAttempts = 5

type CreateRoomRequest struct {
	GuestCanPause *bool `json:"guest_can_pause"`
	VotesToSkip   *int  `json:"votes_to_skip"`
}

type JoinRoomRequest struct {
	Code string `json:"code"`
}

type UpdateRoomRequest struct {
	Code          string `json:"code"`
	GuestCanPause *bool  `json:"guest_can_pause"`
	VotesToSkip   *int   `json:"votes_to_skip"`
}

func roomResponse(room database.Room, sessionId string) types.Room {
	return types.Room{
		Code:          room.Code,
		GuestCanPause: room.GuestCanPause,
		VotesToSkip:   room.VotesToSkip,
		IsHost:        room.Host == sessionId,
		CreatedAt:     room.CreatedAt,
		UpdatedAt:     room.UpdatedAt,
	}
}

func (s *MusicroomApp) listRooms(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFrom(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbRooms, err := s.db.ListRooms()
	if err != nil {
		s.log.Println("list rooms:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	rooms := make([]types.Room, 0, len(dbRooms))
	for _, room := range dbRooms {
		rooms = append(rooms, roomResponse(room, sess.Id))
	}

	s.writeJson(w, http.StatusOK, rooms)
}

func (s *MusicroomApp) getRoom(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFrom(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	room, err := s.db.GetRoomByCode(code)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, roomResponse(room, sess.Id))
}

// createRoom creates a room for the caller's session or, when the session
// already hosts one, updates its settings in place. Status 201 signals a
// fresh room, 200 an update of the existing one.
func (s *MusicroomApp) createRoom(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.GuestCanPause == nil || req.VotesToSkip == nil || *req.VotesToSkip < 1 {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	sess, ok := SessionFrom(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var (
		room     database.Room
		inserted bool
	)
	for attempt := 0; ; attempt++ {
		code, err := s.generateRoomCode()
		if err != nil {
			s.log.Println("generate room code:", err)
			errResp := NewInternalServerError(err)
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		room, inserted, err = s.db.UpsertRoom(database.UpsertRoomParams{
			Code:          code,
			Host:          sess.Id,
			GuestCanPause: *req.GuestCanPause,
			VotesToSkip:   *req.VotesToSkip,
		})
		if err == nil {
			break
		}

		// retry only on a code collision
		if !database.IsUniqueViolation(err, "rooms_code_key") || attempt == maxCodeAttempts-1 {
			s.log.Println("upsert room:", err)
			errResp := NewInternalServerError(err)
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}
	}

	if err := s.db.SetSessionRoomCode(sess.Id, room.Code); err != nil {
		s.log.Println("set session room code:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	statusCode := http.StatusOK
	if inserted {
		statusCode = http.StatusCreated
		s.stats.Incr("RoomsCreated")
	} else {
		s.stats.Incr("RoomsUpdated")
	}

	s.writeJson(w, statusCode, roomResponse(room, sess.Id))
}

func (s *MusicroomApp) joinRoom(w http.ResponseWriter, r *http.Request) {
	var req JoinRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	sess, ok := SessionFrom(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	room, err := s.db.GetRoomByCode(req.Code)
	if err != nil {
		// an unknown code is a client error here, not a lookup miss
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewBadRequestError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.db.SetSessionRoomCode(sess.Id, room.Code); err != nil {
		s.log.Println("set session room code:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.stats.Incr("RoomsJoined")
	s.writeJson(w, http.StatusOK, map[string]string{"message": "Room Joined!"})
}

func (s *MusicroomApp) userInRoom(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFrom(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var code any
	if sess.RoomCode != "" {
		code = sess.RoomCode
	}

	s.writeJson(w, http.StatusOK, map[string]any{"code": code})
}

// leaveRoom clears the session's room association. If the caller hosts a
// room, that room is deleted as well; rooms the caller merely joined are
// left intact. The call succeeds regardless of prior state.
func (s *MusicroomApp) leaveRoom(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFrom(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if sess.RoomCode != "" {
		if err := s.db.ClearSessionRoomCode(sess.Id); err != nil {
			s.log.Println("clear session room code:", err)
			errResp := NewInternalServerError(err)
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		_, err := s.db.GetRoomByHost(sess.Id)
		if err == nil {
			if err := s.db.DeleteRoomByHost(sess.Id); err != nil {
				s.log.Println("delete room:", err)
				errResp := NewInternalServerError(err)
				s.writeJson(w, errResp.StatusCode, errResp)
				return
			}
			s.stats.Incr("RoomsDeleted")
		} else if !errors.Is(err, sql.ErrNoRows) {
			errResp := NewInternalServerError(err)
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}
	}

	s.writeJson(w, http.StatusOK, map[string]string{"message": "Success"})
}

func (s *MusicroomApp) updateRoom(w http.ResponseWriter, r *http.Request) {
	var req UpdateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.Code == "" || req.GuestCanPause == nil || req.VotesToSkip == nil || *req.VotesToSkip < 1 {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	sess, ok := SessionFrom(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	room, err := s.db.GetRoomByCode(req.Code)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if room.Host != sess.Id {
		errResp := NewForbiddenError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	updated, err := s.db.UpdateRoom(database.UpdateRoomParams{
		Code:          req.Code,
		GuestCanPause: *req.GuestCanPause,
		VotesToSkip:   *req.VotesToSkip,
	})
	if err != nil {
		s.log.Println("update room:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.stats.Incr("RoomsUpdated")
	s.writeJson(w, http.StatusOK, roomResponse(updated, sess.Id))
}
