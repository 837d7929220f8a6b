package server

import (
	"io"
	"strconv"

	"yatube/internal/models"
	"yatube/internal/service"
	"yatube/internal/storage"

	"github.com/gofiber/fiber/v2"
)

// postRequest is the create/edit form body. Any author field is ignored.
type postRequest struct {
	Text       string `json:"text" form:"text"`
	Group      string `json:"group" form:"group"`
	ImageClear string `json:"image-clear" form:"image-clear"`
}

func (r postRequest) clearImage() bool {
	switch r.ImageClear {
	case "on", "true", "1":
		return true
	}
	return false
}

// readImage returns the uploaded image, or nil when none was sent. Reads stop
// one byte past the size limit so oversized files are still rejected.
func readImage(c *fiber.Ctx) (*service.ImageUpload, error) {
	fh, err := c.FormFile("image")
	if err != nil {
		return nil, nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(io.LimitReader(f, storage.MaxImageBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	return &service.ImageUpload{Filename: fh.Filename, Data: data}, nil
}

func groupValue(p *models.Post) string {
	if p.GroupID == nil {
		return ""
	}
	return strconv.FormatUint(uint64(*p.GroupID), 10)
}

// renderFormErrors re-renders the post form with the submitted values.
func (s *Server) renderFormErrors(c *fiber.Ctx, req postRequest, isEdit bool, postID uint, fields map[string]string) error {
	groups, err := s.postService.ListGroups(c.UserContext())
	if err != nil {
		return s.respondError(c, err)
	}
	form := postForm{Text: req.Text, Group: req.Group}
	return render(c, fiber.StatusBadRequest, tplCreatePost, formContext(form, groups, isEdit, postID, fields))
}

// Index handles GET /
func (s *Server) Index(c *fiber.Ctx) error {
	page, err := s.postService.Index(c.UserContext(), c.Query("page"))
	if err != nil {
		return s.respondError(c, err)
	}
	return render(c, fiber.StatusOK, tplIndex, fiber.Map{"page_obj": page})
}

// GroupPosts handles GET /group/:slug/
func (s *Server) GroupPosts(c *fiber.Ctx) error {
	group, page, err := s.postService.GroupPosts(c.UserContext(), c.Params("slug"), c.Query("page"))
	if err != nil {
		return s.respondError(c, err)
	}
	return render(c, fiber.StatusOK, tplGroupList, fiber.Map{
		"group":    group,
		"page_obj": page,
	})
}

// Profile handles GET /profile/:username/
func (s *Server) Profile(c *fiber.Ctx) error {
	ctx := c.UserContext()
	profile, err := s.postService.AuthorProfile(ctx, c.Params("username"), c.Query("page"))
	if err != nil {
		return s.respondError(c, err)
	}
	following, err := s.followService.IsFollowing(ctx, currentUserID(c), profile.Author.ID)
	if err != nil {
		return s.respondError(c, err)
	}
	return render(c, fiber.StatusOK, tplProfile, fiber.Map{
		"author":    profile.Author,
		"page_obj":  profile.Page,
		"count":     profile.Page.Count,
		"following": following,
	})
}

// PostDetail handles GET /posts/:id/
func (s *Server) PostDetail(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	detail, err := s.postService.GetPostDetail(c.UserContext(), id)
	if err != nil {
		return s.respondError(c, err)
	}
	return render(c, fiber.StatusOK, tplPostDetail, fiber.Map{
		"post":     detail.Post,
		"count":    detail.AuthorPostCount,
		"comments": detail.Comments,
		"form":     fiber.Map{"text": ""},
	})
}

// CreatePostForm handles GET /create/
func (s *Server) CreatePostForm(c *fiber.Ctx) error {
	groups, err := s.postService.ListGroups(c.UserContext())
	if err != nil {
		return s.respondError(c, err)
	}
	return render(c, fiber.StatusOK, tplCreatePost, formContext(postForm{}, groups, false, 0, nil))
}

// CreatePost handles POST /create/
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req postRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	img, err := readImage(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid image upload"))
	}

	post, err := s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		AuthorID: currentUserID(c),
		Text:     req.Text,
		Group:    req.Group,
		Image:    img,
	})
	if err != nil {
		if appErr, ok := models.AsAppError(err); ok && appErr.Code == models.CodeValidation {
			return s.renderFormErrors(c, req, false, 0, appErr.Fields)
		}
		return s.respondError(c, err)
	}
	return c.Redirect(profileURL(post.Author.Username), fiber.StatusFound)
}

// EditPostForm handles GET /posts/:id/edit/
func (s *Server) EditPostForm(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	ctx := c.UserContext()
	post, err := s.postService.GetEditablePost(ctx, currentUserID(c), id)
	if err != nil {
		if models.HasCode(err, models.CodeForbidden) {
			return c.Redirect(postURL(id), fiber.StatusFound)
		}
		return s.respondError(c, err)
	}
	groups, err := s.postService.ListGroups(ctx)
	if err != nil {
		return s.respondError(c, err)
	}
	form := postForm{Text: post.Text, Group: groupValue(post), Image: post.ImageURL}
	return render(c, fiber.StatusOK, tplCreatePost, formContext(form, groups, true, post.ID, nil))
}

// EditPost handles POST /posts/:id/edit/
func (s *Server) EditPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	// Missing posts and foreign authors are answered before the form is read.
	if _, err := s.postService.GetEditablePost(c.UserContext(), currentUserID(c), id); err != nil {
		if models.HasCode(err, models.CodeForbidden) {
			return c.Redirect(postURL(id), fiber.StatusFound)
		}
		return s.respondError(c, err)
	}

	var req postRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	img, err := readImage(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid image upload"))
	}

	_, err = s.postService.UpdatePost(c.UserContext(), service.UpdatePostInput{
		ActorID:    currentUserID(c),
		PostID:     id,
		Text:       req.Text,
		Group:      req.Group,
		Image:      img,
		ClearImage: req.clearImage(),
	})
	if err != nil {
		appErr, ok := models.AsAppError(err)
		switch {
		case ok && appErr.Code == models.CodeForbidden:
			return c.Redirect(postURL(id), fiber.StatusFound)
		case ok && appErr.Code == models.CodeValidation:
			return s.renderFormErrors(c, req, true, id, appErr.Fields)
		}
		return s.respondError(c, err)
	}
	return c.Redirect(postURL(id), fiber.StatusFound)
}

// DeletePost handles POST /posts/:id/delete/
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.postService.DeletePost(c.UserContext(), currentUserID(c), id)
	if err != nil {
		if models.HasCode(err, models.CodeForbidden) {
			return c.Redirect(postURL(id), fiber.StatusFound)
		}
		return s.respondError(c, err)
	}
	return c.Redirect(profileURL(post.Author.Username), fiber.StatusFound)
}
