package server

import (
	"yatube/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Template names understood by the frontend renderer.
const (
	tplIndex       = "posts/index.html"
	tplGroupList   = "posts/group_list.html"
	tplProfile     = "posts/profile.html"
	tplPostDetail  = "posts/post_detail.html"
	tplCreatePost  = "posts/create_post.html"
	tplFollow      = "posts/follow.html"
	tplAboutAuthor = "about/author.html"
	tplAboutTech   = "about/tech.html"
	tplSignup      = "users/signup.html"
	tplLogin       = "users/login.html"
	tplLoggedOut   = "users/logged_out.html"
)

// page is the response envelope for every rendered view.
type page struct {
	Template string    `json:"template"`
	Context  fiber.Map `json:"context"`
}

// render writes a page. The viewer's id is added to every context so the
// frontend can toggle author-only controls.
func render(c *fiber.Ctx, status int, template string, ctx fiber.Map) error {
	if ctx == nil {
		ctx = fiber.Map{}
	}
	if uid := currentUserID(c); uid != 0 {
		ctx["viewer_id"] = uid
	}
	return c.Status(status).JSON(page{Template: template, Context: ctx})
}

// postForm is the create/edit form view-model.
type postForm struct {
	Text  string `json:"text"`
	Group string `json:"group"`
	Image string `json:"image,omitempty"`
}

// formContext builds the create/edit page context; errs may be nil.
func formContext(form postForm, groups []*models.Group, isEdit bool, postID uint, errs map[string]string) fiber.Map {
	if groups == nil {
		groups = []*models.Group{}
	}
	ctx := fiber.Map{
		"form":    form,
		"groups":  groups,
		"is_edit": isEdit,
	}
	if isEdit {
		ctx["post_id"] = postID
	}
	if len(errs) > 0 {
		ctx["errors"] = errs
	}
	return ctx
}
