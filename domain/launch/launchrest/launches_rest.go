package launchrest

import (
	"encoding/json"
	"errors"
	"launchpad/assets"
	"launchpad/bizerror"
	"launchpad/domain/launch"
	"launchpad/indices/search"
	"launchpad/misc"
	"launchpad/session"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var (
	PathLaunches = "/v1/launches"
)

func RegisterLaunchesRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	// marketplace browse and detail are public
	r.GET(PathLaunches, handleBrowse)
	r.GET(PathLaunches+"/:id", handleDetail)

	g := r.Group(PathLaunches, middleWares...)
	g.POST("", handleSubmit)
	g.POST(":id/cancellations", handleCancel)

	o := r.Group("/v1/own-launches", middleWares...)
	o.GET("", handleListOwn)
}

// handleSubmit accepts a multipart form: a "launch" JSON part, 3 to 6
// "screenshots" file parts and one "verificationPhoto" file part.
func handleSubmit(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	payloads := form.Value["launch"]
	if len(payloads) != 1 {
		panic(&bizerror.ErrBadParam{Cause: errors.New("exactly one launch part is required")})
	}
	creation := launch.LaunchCreation{}
	if err := json.Unmarshal([]byte(payloads[0]), &creation); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err := binding.Validator.ValidateStruct(&creation); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	screenshots, err := openUploads(form.File["screenshots"])
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	defer closeUploads(screenshots)

	photos, err := openUploads(form.File["verificationPhoto"])
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	defer closeUploads(photos)
	var photo *assets.Upload
	if len(photos) == 1 {
		photo = &photos[0].Upload
	} else if len(photos) > 1 {
		panic(&bizerror.ErrBadParam{Cause: errors.New("exactly one verification photo is required")})
	}

	record, err := launch.SubmitLaunchFunc(&creation, uploadsOf(screenshots), photo, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, record)
}

func handleBrowse(c *gin.Context) {
	query := launch.LaunchQuery{}
	if err := c.MustBindWith(&query, binding.Query); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	records, err := search.SearchLaunchesFunc(query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, &misc.PagedBody{List: records, Total: uint64(len(records))})
}

func handleDetail(c *gin.Context) {
	id, err := misc.BindingPathID(c)
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	record, err := launch.DetailLaunchFunc(id, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, record)
}

func handleListOwn(c *gin.Context) {
	records, err := launch.ListOwnLaunchesFunc(session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, &misc.PagedBody{List: records, Total: uint64(len(records))})
}

func handleCancel(c *gin.Context) {
	id, err := misc.BindingPathID(c)
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	record, err := launch.CancelLaunchFunc(id, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, record)
}

type openedUpload struct {
	assets.Upload
	file multipart.File
}

func openUploads(headers []*multipart.FileHeader) ([]openedUpload, error) {
	uploads := []openedUpload{}
	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			closeUploads(uploads)
			return nil, err
		}
		uploads = append(uploads, openedUpload{Upload: assets.Upload{Filename: h.Filename, Reader: f}, file: f})
	}
	return uploads, nil
}

func closeUploads(uploads []openedUpload) {
	for _, u := range uploads {
		_ = u.file.Close()
	}
}

func uploadsOf(opened []openedUpload) []assets.Upload {
	uploads := make([]assets.Upload, 0, len(opened))
	for _, o := range opened {
		uploads = append(uploads, o.Upload)
	}
	return uploads
}
