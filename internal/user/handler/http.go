// Package handler exposes user administration over HTTP. Password hashes never
// leave the server.
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"silowatch/internal/security"
	"silowatch/internal/server/respond"
	"silowatch/internal/user/domain"
	"silowatch/internal/user/repository"
)

// HTTP handles user requests.
type HTTP struct {
	users  repository.Repository
	hasher *security.Hasher
}

// NewHTTP returns the user handler.
func NewHTTP(users repository.Repository, hasher *security.Hasher) *HTTP {
	return &HTTP{users: users, hasher: hasher}
}

// Register mounts the user routes on the authenticated router.
func (h *HTTP) Register(r *mux.Router) {
	r.HandleFunc("/users", h.List).Methods(http.MethodGet)
	r.HandleFunc("/users", h.Create).Methods(http.MethodPost)
	r.HandleFunc("/users/{id}", h.Get).Methods(http.MethodGet)
	r.HandleFunc("/users/{id}", h.Update).Methods(http.MethodPut)
	r.HandleFunc("/users/{id}", h.Delete).Methods(http.MethodDelete)
}

type userDTO struct {
	ID        string    `json:"id"`
	OrgID     *string   `json:"orgId,omitempty"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toDTO(u *domain.User) userDTO {
	return userDTO{
		ID: u.ID, OrgID: u.OrgID, Email: u.Email, Name: u.Name,
		Role: string(u.Role), CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt,
	}
}

func (h *HTTP) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "list users")
		return
	}
	out := make([]userDTO, 0, len(users))
	for _, u := range users {
		out = append(out, toDTO(u))
	}
	respond.JSON(w, http.StatusOK, out)
}

func (h *HTTP) Get(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "get user")
		return
	}
	if u == nil {
		respond.Error(w, http.StatusNotFound, "user not found")
		return
	}
	respond.JSON(w, http.StatusOK, toDTO(u))
}

func (h *HTTP) Create(w http.ResponseWriter, r *http.Request) {
	var in struct {
		OrgID    *string `json:"orgId"`
		Email    string  `json:"email"`
		Name     string  `json:"name"`
		Password string  `json:"password"`
		Role     string  `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Email == "" || in.Password == "" {
		respond.Error(w, http.StatusBadRequest, "invalid body")
		return
	}
	existing, err := h.users.GetByEmail(r.Context(), in.Email)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "get user")
		return
	}
	if existing != nil {
		respond.Error(w, http.StatusConflict, "email already registered")
		return
	}
	hash, err := h.hasher.Hash([]byte(in.Password))
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "hash password")
		return
	}
	role := domain.Role(in.Role)
	if role != domain.RoleAdmin {
		role = domain.RoleUser
	}
	now := time.Now().UTC()
	u := &domain.User{
		ID: uuid.New().String(), OrgID: in.OrgID, Email: in.Email,
		Name: in.Name, PasswordHash: hash, Role: role,
		CreatedAt: now, UpdatedAt: now,
	}
	if err := h.users.Create(r.Context(), u); err != nil {
		respond.Error(w, http.StatusInternalServerError, "create user")
		return
	}
	respond.JSON(w, http.StatusCreated, toDTO(u))
}

func (h *HTTP) Update(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "get user")
		return
	}
	if u == nil {
		respond.Error(w, http.StatusNotFound, "user not found")
		return
	}
	var in struct {
		OrgID    *string `json:"orgId"`
		Name     *string `json:"name"`
		Password *string `json:"password"`
		Role     *string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid body")
		return
	}
	if in.OrgID != nil {
		u.OrgID = in.OrgID
	}
	if in.Name != nil {
		u.Name = *in.Name
	}
	if in.Password != nil {
		hash, err := h.hasher.Hash([]byte(*in.Password))
		if err != nil {
			respond.Error(w, http.StatusInternalServerError, "hash password")
			return
		}
		u.PasswordHash = hash
	}
	if in.Role != nil {
		if role := domain.Role(*in.Role); role == domain.RoleAdmin || role == domain.RoleUser {
			u.Role = role
		}
	}
	u.UpdatedAt = time.Now().UTC()
	if err := h.users.Update(r.Context(), u); err != nil {
		respond.Error(w, http.StatusInternalServerError, "update user")
		return
	}
	respond.JSON(w, http.StatusOK, toDTO(u))
}

func (h *HTTP) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		respond.Error(w, http.StatusInternalServerError, "delete user")
		return
	}
	respond.JSON(w, http.StatusNoContent, nil)
}
