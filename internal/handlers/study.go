package handlers

import (
	"errors"
	"net/http"

	"personal-tracker/internal/models"
	"personal-tracker/internal/tracker"
)

// StudyViewModel is the data passed to the study template.
type StudyViewModel struct {
	Tasks []models.StudyTask
	Today string
}

// ListTasks renders the study checklist.
func (h *Handlers) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.svc.Tasks(r.Context(), GetUserFromContext(r).ID)
	if err != nil {
		h.serverError(w, r, "ListTasks error", err)
		return
	}
	h.render(w, r, "study.html", "Study", StudyViewModel{
		Tasks: tasks,
		Today: models.NewDate(h.now()).String(),
	})
}

// CreateTask handles the creation of a new study task.
func (h *Handlers) CreateTask(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.redirectWithFlash(w, r, "/study", FlashError, "Invalid form submission")
		return
	}

	_, err := h.svc.AddTask(r.Context(), GetUserFromContext(r).ID, tracker.TaskInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		DueDate:     r.FormValue("due_date"),
	})
	if err != nil {
		if ve, ok := tracker.IsValidation(err); ok {
			h.redirectWithFlash(w, r, "/study", FlashError, ve.Message)
			return
		}
		h.serverError(w, r, "CreateTask error", err)
		return
	}
	h.redirectWithFlash(w, r, "/study", FlashSuccess, "Task added successfully!")
}

// ToggleTask flips the completion of one of the caller's tasks.
func (h *Handlers) ToggleTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "Task not found", http.StatusNotFound)
		return
	}
	if err := h.svc.ToggleTask(r.Context(), GetUserFromContext(r).ID, id); err != nil {
		if errors.Is(err, tracker.ErrNotFound) {
			http.Error(w, "Task not found", http.StatusNotFound)
			return
		}
		h.serverError(w, r, "ToggleTask error", err)
		return
	}
	http.Redirect(w, r, "/study", http.StatusFound)
}

// DeleteTask removes one of the caller's tasks.
func (h *Handlers) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if _, err := h.svc.DeleteTask(r.Context(), GetUserFromContext(r).ID, id); err != nil {
		h.serverError(w, r, "DeleteTask error", err)
		return
	}
	h.redirectWithFlash(w, r, "/study", FlashSuccess, "Task deleted successfully")
}
