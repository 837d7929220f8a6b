package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"yatube/internal/cache"
	"yatube/internal/events"
	"yatube/internal/models"
	"yatube/internal/observability"
	"yatube/internal/pagination"
	"yatube/internal/repository"
	"yatube/internal/storage"
	"yatube/internal/validation"

	"gorm.io/gorm"
)

// MaxPostTextLength caps post text, counted in characters.
const MaxPostTextLength = 10000

// PostService implements post listings and the create/edit/delete lifecycle.
type PostService struct {
	posts     repository.PostRepository
	groups    repository.GroupRepository
	users     repository.UserRepository
	comments  repository.CommentRepository
	store     storage.ImageStore
	listings  cache.ListingCache
	publisher events.Publisher
}

// PostServiceDeps are the collaborators of PostService. Store, Listings and
// Publisher are optional.
type PostServiceDeps struct {
	Posts     repository.PostRepository
	Groups    repository.GroupRepository
	Users     repository.UserRepository
	Comments  repository.CommentRepository
	Store     storage.ImageStore
	Listings  cache.ListingCache
	Publisher events.Publisher
}

func NewPostService(d PostServiceDeps) *PostService {
	pub := d.Publisher
	if pub == nil {
		pub = events.NopPublisher{}
	}
	return &PostService{
		posts:     d.Posts,
		groups:    d.Groups,
		users:     d.Users,
		comments:  d.Comments,
		store:     d.Store,
		listings:  d.Listings,
		publisher: pub,
	}
}

// ImageUpload is a file submitted with the post form.
type ImageUpload struct {
	Filename string
	Data     []byte
}

type CreatePostInput struct {
	AuthorID uint
	Text     string
	// Group is the raw form value: empty or a group id.
	Group string
	Image *ImageUpload
}

type UpdatePostInput struct {
	ActorID    uint
	PostID     uint
	Text       string
	Group      string
	Image      *ImageUpload
	ClearImage bool
}

// PostDetail is everything the post page shows.
type PostDetail struct {
	Post            *models.Post
	AuthorPostCount int64
	Comments        []*models.Comment
}

// Profile is an author's page: the author plus a page of their posts.
type Profile struct {
	Author *models.User
	Page   *PostPage
}

type postForm struct {
	text    string
	groupID *uint
	image   *preparedImage
}

type preparedImage struct {
	contentType string
	ext         string
	data        []byte
}

// validateForm checks the shared create/edit fields and collects every field error.
func (s *PostService) validateForm(ctx context.Context, text, group string, img *ImageUpload) (*postForm, error) {
	fields := validation.FieldErrors{}
	// Surrounding whitespace is dropped, as form text fields do.
	form := &postForm{text: strings.TrimSpace(text)}

	switch n := utf8.RuneCountInString(form.text); {
	case n == 0:
		fields.Add("text", validation.MsgRequired)
	case n > MaxPostTextLength:
		fields.Add("text", fmt.Sprintf("Ensure this value has at most %d characters (it has %d).", MaxPostTextLength, n))
	}

	if g := strings.TrimSpace(group); g != "" {
		id, err := strconv.ParseUint(g, 10, 64)
		if err != nil || id == 0 {
			fields.Add("group", validation.MsgInvalidChoice)
		} else if _, err := s.groups.GetByID(ctx, uint(id)); errors.Is(err, gorm.ErrRecordNotFound) {
			fields.Add("group", validation.MsgInvalidChoice)
		} else if err != nil {
			return nil, models.NewInternalError(err)
		} else {
			gid := uint(id)
			form.groupID = &gid
		}
	}

	if img != nil && len(img.Data) > 0 {
		ct, ext, err := storage.DetectImage(img.Data)
		switch {
		case errors.Is(err, storage.ErrImageTooLarge):
			fields.Add("image", "The uploaded image exceeds the 5 MiB limit.")
		case err != nil:
			fields.Add("image", validation.MsgInvalidImage)
		default:
			form.image = &preparedImage{contentType: ct, ext: ext, data: img.Data}
		}
	}

	if fields.Any() {
		return nil, models.NewFieldValidationError(fields)
	}
	return form, nil
}

func (s *PostService) storeImage(ctx context.Context, img *preparedImage) (string, error) {
	if s.store == nil {
		return "", models.NewInternalError(errors.New("image storage is not configured"))
	}
	key := storage.NewObjectKey(img.ext)
	if err := s.store.Put(ctx, key, img.contentType, img.data); err != nil {
		return "", models.NewInternalError(fmt.Errorf("store image: %w", err))
	}
	observability.ImageUploadBytes.Observe(float64(len(img.data)))
	return key, nil
}

// CreatePost validates the form and creates a post authored by in.AuthorID.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if in.AuthorID == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	form, err := s.validateForm(ctx, in.Text, in.Group, in.Image)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		Text:     form.text,
		AuthorID: in.AuthorID,
		GroupID:  form.groupID,
	}
	if form.image != nil {
		if post.Image, err = s.storeImage(ctx, form.image); err != nil {
			return nil, err
		}
	}

	if err := s.posts.Create(ctx, post); err != nil {
		removeImage(ctx, s.store, post.Image)
		return nil, models.NewInternalError(err)
	}

	invalidateListings(ctx, s.listings)
	events.Emit(ctx, s.publisher, events.PostCreated, postPayload(post))

	created, err := s.posts.GetByID(ctx, post.ID)
	if err != nil {
		return nil, translate(err, "Post", post.ID)
	}
	attachImageURLs(ctx, s.store, created)
	return created, nil
}

// GetEditablePost returns the post when actorID may edit it: NotFound for an
// unknown post, Forbidden for anyone but the author.
func (s *PostService) GetEditablePost(ctx context.Context, actorID, postID uint) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, translate(err, "Post", postID)
	}
	if !post.IsAuthoredBy(actorID) {
		return nil, models.NewForbiddenError("Only the author can change this post")
	}
	attachImageURLs(ctx, s.store, post)
	return post, nil
}

// UpdatePost replaces text, group and image of a post the actor wrote.
func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.GetEditablePost(ctx, in.ActorID, in.PostID)
	if err != nil {
		return nil, err
	}
	form, err := s.validateForm(ctx, in.Text, in.Group, in.Image)
	if err != nil {
		return nil, err
	}

	oldImage := post.Image
	post.Text = form.text
	post.GroupID = form.groupID
	post.Group = nil

	var newImage string
	switch {
	case form.image != nil:
		if newImage, err = s.storeImage(ctx, form.image); err != nil {
			return nil, err
		}
		post.Image = newImage
	case in.ClearImage:
		post.Image = ""
	}

	if err := s.posts.Update(ctx, post); err != nil {
		removeImage(ctx, s.store, newImage)
		return nil, translate(err, "Post", post.ID)
	}
	if oldImage != "" && oldImage != post.Image {
		removeImage(ctx, s.store, oldImage)
	}

	invalidateListings(ctx, s.listings)
	events.Emit(ctx, s.publisher, events.PostUpdated, postPayload(post))

	updated, err := s.posts.GetByID(ctx, post.ID)
	if err != nil {
		return nil, translate(err, "Post", post.ID)
	}
	attachImageURLs(ctx, s.store, updated)
	return updated, nil
}

// DeletePost removes a post the actor wrote along with its comments and image.
func (s *PostService) DeletePost(ctx context.Context, actorID, postID uint) (*models.Post, error) {
	post, err := s.GetEditablePost(ctx, actorID, postID)
	if err != nil {
		return nil, err
	}
	if err := s.posts.Delete(ctx, post.ID); err != nil {
		return nil, translate(err, "Post", post.ID)
	}
	removeImage(ctx, s.store, post.Image)

	invalidateListings(ctx, s.listings)
	events.Emit(ctx, s.publisher, events.PostDeleted, postPayload(post))
	return post, nil
}

// GetPostDetail loads a post with its comments and the author's post count.
func (s *PostService) GetPostDetail(ctx context.Context, postID uint) (*PostDetail, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, translate(err, "Post", postID)
	}
	count, err := s.posts.Count(ctx, repository.PostFilter{AuthorID: post.AuthorID})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	comments, err := s.comments.ListByPost(ctx, post.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if comments == nil {
		comments = []*models.Comment{}
	}
	attachImageURLs(ctx, s.store, post)
	return &PostDetail{Post: post, AuthorPostCount: count, Comments: comments}, nil
}

func (s *PostService) listPage(ctx context.Context, filter repository.PostFilter, rawPage string) (*PostPage, error) {
	return listPostPage(ctx, s.posts, s.store, filter, rawPage)
}

// Index returns a page of all posts, served from the listing cache when fresh.
func (s *PostService) Index(ctx context.Context, rawPage string) (*PostPage, error) {
	total, err := s.posts.Count(ctx, repository.PostFilter{})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	// Out-of-range numbers share the key of the page they clamp to.
	page := pagination.New(total, pagination.PostsPerPage, rawPage)
	return cache.Aside(ctx, s.listings, cache.IndexPageKey(page.Number), func(ctx context.Context) (*PostPage, error) {
		return fetchPostPage(ctx, s.posts, s.store, repository.PostFilter{}, page)
	})
}

// GroupPosts returns the group identified by slug and a page of its posts.
func (s *PostService) GroupPosts(ctx context.Context, slug, rawPage string) (*models.Group, *PostPage, error) {
	group, err := s.groups.GetBySlug(ctx, slug)
	if err != nil {
		return nil, nil, translate(err, "Group", slug)
	}
	page, err := s.listPage(ctx, repository.PostFilter{GroupID: group.ID}, rawPage)
	if err != nil {
		return nil, nil, err
	}
	return group, page, nil
}

// AuthorProfile returns the user identified by username and a page of their posts.
func (s *PostService) AuthorProfile(ctx context.Context, username, rawPage string) (*Profile, error) {
	author, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, translate(err, "User", username)
	}
	page, err := s.listPage(ctx, repository.PostFilter{AuthorID: author.ID}, rawPage)
	if err != nil {
		return nil, err
	}
	return &Profile{Author: author, Page: page}, nil
}

// ListGroups returns the choices for the post form's group field.
func (s *PostService) ListGroups(ctx context.Context) ([]*models.Group, error) {
	groups, err := s.groups.List(ctx)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return groups, nil
}

func postPayload(p *models.Post) map[string]any {
	payload := map[string]any{
		"post_id":   p.ID,
		"author_id": p.AuthorID,
		"has_image": p.Image != "",
	}
	if p.GroupID != nil {
		payload["group_id"] = *p.GroupID
	}
	return payload
}
