package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/Nirob-Barman/ShopSphere/internal/apperrors"
	"github.com/Nirob-Barman/ShopSphere/internal/handlers/render"
	"github.com/Nirob-Barman/ShopSphere/internal/logger"
	"github.com/Nirob-Barman/ShopSphere/internal/service/auth"
)

func handleCreateRole(as authService, l logger.Logger) http.Handler {
	type request struct {
		RoleName string `json:"role_name"`
	}
	type response struct {
		RoleName string `json:"role_name"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.Bind[request](w, r)
		if err != nil {
			return
		}

		role, err := as.CreateRole(r.Context(), data.RoleName)
		if err != nil {
			var validationErr *apperrors.ValidationError
			switch {
			case errors.As(err, &validationErr):
				render.ValidationMessages(w, validationErr.Messages)
			case errors.Is(err, apperrors.ErrRoleAlreadyExists):
				render.ServiceError(w, "Role already exists", http.StatusConflict)
			default:
				l.Error("create role failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.Created(w, "Role created successfully", response{RoleName: role.Name})
	})
}

func handleDeleteRole(as authService, l logger.Logger) http.Handler {
	type request struct {
		RoleName string `json:"role_name"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.Bind[request](w, r)
		if err != nil {
			return
		}

		err = as.DeleteRole(r.Context(), data.RoleName)
		if err != nil {
			var validationErr *apperrors.ValidationError
			var inUseErr *apperrors.RoleInUseError
			switch {
			case errors.As(err, &validationErr):
				render.ValidationMessages(w, validationErr.Messages)
			case errors.Is(err, apperrors.ErrRoleProtected):
				render.ServiceError(w, "Admin role can not be deleted", http.StatusConflict)
			case errors.Is(err, apperrors.ErrRoleNotFound):
				render.ServiceError(w, "Role not found", http.StatusNotFound)
			case errors.As(err, &inUseErr):
				render.ServiceError(w, inUseErr.Error(), http.StatusConflict)
			default:
				l.Error("delete role failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.Success(w, "Role deleted successfully", nil)
	})
}

type roleAssignmentResponse struct {
	UserID   uuid.UUID `json:"user_id"`
	RoleName string    `json:"role_name"`
}

func handleAssignRole(as authService, l logger.Logger) http.Handler {
	type request struct {
		UserID   string `json:"user_id"`
		RoleName string `json:"role_name"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.Bind[request](w, r)
		if err != nil {
			return
		}

		assignment, err := as.AssignRole(r.Context(), auth.AssignRoleParams{
			UserID:   data.UserID,
			RoleName: data.RoleName,
		})
		if err != nil {
			writeRoleAssignmentError(w, l, err)
			return
		}

		render.Success(w, "Role assigned successfully", roleAssignmentResponse{
			UserID:   assignment.UserID,
			RoleName: assignment.RoleName,
		})
	})
}

func handleRemoveRole(as authService, l logger.Logger) http.Handler {
	type request struct {
		UserID   string `json:"user_id"`
		RoleName string `json:"role_name"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.Bind[request](w, r)
		if err != nil {
			return
		}

		assignment, err := as.RemoveRole(r.Context(), auth.AssignRoleParams{
			UserID:   data.UserID,
			RoleName: data.RoleName,
		})
		if err != nil {
			writeRoleAssignmentError(w, l, err)
			return
		}

		render.Success(w, "Role removed successfully", roleAssignmentResponse{
			UserID:   assignment.UserID,
			RoleName: assignment.RoleName,
		})
	})
}

func writeRoleAssignmentError(w http.ResponseWriter, l logger.Logger, err error) {
	var validationErr *apperrors.ValidationError
	switch {
	case errors.As(err, &validationErr):
		render.ValidationMessages(w, validationErr.Messages)
	case errors.Is(err, apperrors.ErrUserNotFound):
		render.ServiceError(w, "User not found", http.StatusNotFound)
	case errors.Is(err, apperrors.ErrRoleNotFound):
		render.ServiceError(w, "Role not found", http.StatusNotFound)
	case errors.Is(err, apperrors.ErrUserNotInRole):
		render.ServiceError(w, "User is not assigned to this role", http.StatusBadRequest)
	default:
		l.Error("role assignment failed", "error", err.Error())
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
	}
}
