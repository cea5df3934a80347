package httpapi

import (
	"net/http"

	"github.com/samber/lo"

	"github.com/MannLester/GovTrackerPH-sub000/internal/platform/httpx"
	"github.com/MannLester/GovTrackerPH-sub000/internal/platform/principal"
	"github.com/MannLester/GovTrackerPH-sub000/internal/platform/requestctx"
	"github.com/MannLester/GovTrackerPH-sub000/internal/services/tracker/catalog"
	"github.com/MannLester/GovTrackerPH-sub000/internal/services/tracker/comment"
	"github.com/MannLester/GovTrackerPH-sub000/internal/services/tracker/reaction"
	"github.com/MannLester/GovTrackerPH-sub000/internal/services/tracker/storage"
)

func (h handlers) handleToggle(kind storage.TargetKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := principal.Require(r.Context())
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		var body reactionRequest
		if err := httpx.DecodeJSON(w, r, &body); err != nil {
			httpx.WriteError(w, err)
			return
		}
		vote, err := reaction.ParseVote(body.Vote)
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		result, err := h.reactions.Toggle(r.Context(), kind, pathID(r), actor.ID, vote)
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		_ = httpx.WriteJSON(w, http.StatusOK, toReactionResponse(result))
	}
}

func (h handlers) handleListComments(w http.ResponseWriter, r *http.Request) {
	page, err := pageParams(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	result, err := h.comments.ListTopLevel(r.Context(), pathID(r), requestctx.UserIDFromContext(r.Context()), page)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, listResponse[commentRecord]{
		Items:      lo.Map(result.Comments, toCommentRecord),
		Pagination: &result.Pagination,
	})
}

func (h handlers) handleListReplies(w http.ResponseWriter, r *http.Request) {
	replies, err := h.comments.ListReplies(r.Context(), pathID(r), requestctx.UserIDFromContext(r.Context()))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, listResponse[commentRecord]{
		Items: lo.Map(replies, toCommentRecord),
	})
}

func (h handlers) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	actor, err := principal.Require(r.Context())
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	var body createCommentRequest
	if err := httpx.DecodeJSON(w, r, &body); err != nil {
		httpx.WriteError(w, err)
		return
	}
	view, err := h.comments.Create(r.Context(), actor, comment.CreateInput{
		ProjectID: pathID(r),
		Content:   body.Content,
		ParentID:  body.ParentID,
	})
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusCreated, toCommentRecord(view, 0))
}

func (h handlers) handleEditComment(w http.ResponseWriter, r *http.Request) {
	actor, err := principal.Require(r.Context())
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	var body editCommentRequest
	if err := httpx.DecodeJSON(w, r, &body); err != nil {
		httpx.WriteError(w, err)
		return
	}
	view, err := h.comments.Edit(r.Context(), actor, pathID(r), body.Content)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, toCommentRecord(view, 0))
}

func (h handlers) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	actor, err := principal.Require(r.Context())
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	if err := h.comments.Delete(r.Context(), actor, pathID(r)); err != nil {
		httpx.WriteError(w, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, deleteResponse{Deleted: true})
}

func (h handlers) handleListProjects(w http.ResponseWriter, r *http.Request) {
	page, err := pageParams(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	query := r.URL.Query()
	result, err := h.catalog.ListProjects(r.Context(), catalog.ListParams{
		Status:   query.Get("status"),
		Region:   query.Get("region"),
		Search:   query.Get("search"),
		Sort:     query.Get("sort"),
		Order:    query.Get("order"),
		Page:     page,
		ViewerID: requestctx.UserIDFromContext(r.Context()),
	})
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, listResponse[projectRecord]{
		Items:      lo.Map(result.Projects, toProjectRecord),
		Pagination: &result.Pagination,
	})
}

func (h handlers) handleGetProject(w http.ResponseWriter, r *http.Request) {
	detail, err := h.catalog.GetProject(r.Context(), pathID(r), requestctx.UserIDFromContext(r.Context()))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, toProjectDetailRecord(detail))
}
