package launchrest

import (
	"bytes"
	"io/ioutil"
	"launchpad/assets"
	"launchpad/bizerror"
	"launchpad/domain/launch"
	"launchpad/indices/search"
	"launchpad/session"
	"launchpad/testinfra"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	. "github.com/onsi/gomega"
)

func buildSubmitForm(t *testing.T, launchJSON string, screenshots int, withPhoto bool) (*bytes.Buffer, string) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	if launchJSON != "" {
		part, err := w.CreateFormField("launch")
		Expect(err).To(BeNil())
		_, err = part.Write([]byte(launchJSON))
		Expect(err).To(BeNil())
	}
	for i := 0; i < screenshots; i++ {
		part, err := w.CreateFormFile("screenshots", "shot.png")
		Expect(err).To(BeNil())
		_, err = part.Write([]byte("img"))
		Expect(err).To(BeNil())
	}
	if withPhoto {
		part, err := w.CreateFormFile("verificationPhoto", "proof.png")
		Expect(err).To(BeNil())
		_, err = part.Write([]byte("img"))
		Expect(err).To(BeNil())
	}
	Expect(w.Close()).To(BeNil())
	return buf, w.FormDataContentType()
}

func validLaunchJSON() string {
	return `{
		"title": "TaskPilot",
		"description": "` + strings.Repeat("A prototype that needs production hardening. ", 3) + `",
		"shortDescription": "Prototype with real users looking for hardening.",
		"techStack": ["go", "react"],
		"services": ["development"],
		"dealTypes": ["hourly"],
		"budgetMin": 1000,
		"budgetMax": 5000,
		"verificationCode": "PV-ABCD"
	}`
}

func TestHandleSubmitLaunch(t *testing.T) {
	RegisterTestingT(t)

	router := gin.Default()
	router.Use(bizerror.ErrorHandling())
	RegisterLaunchesRestAPI(router)

	t.Run("submit successfully", func(t *testing.T) {
		launch.SubmitLaunchFunc = func(c *launch.LaunchCreation, screenshots []assets.Upload,
			photo *assets.Upload, s *session.Session) (*launch.Launch, error) {
			Expect(c.Title).To(Equal("TaskPilot"))
			Expect(c.VerificationCode).To(Equal("PV-ABCD"))
			Expect(len(screenshots)).To(Equal(3))
			Expect(photo).ToNot(BeNil())
			content, err := ioutil.ReadAll(photo.Reader)
			Expect(err).To(BeNil())
			Expect(string(content)).To(Equal("img"))
			return &launch.Launch{ID: 123, Title: c.Title, ApprovalStatus: launch.ApprovalPending}, nil
		}
		body, contentType := buildSubmitForm(t, validLaunchJSON(), 3, true)
		req := httptest.NewRequest(http.MethodPost, PathLaunches, body)
		req.Header.Set("Content-Type", contentType)
		status, respBody, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusCreated))
		Expect(respBody).To(ContainSubstring(`"title":"TaskPilot"`))
	})

	t.Run("launch json part is mandatory", func(t *testing.T) {
		body, contentType := buildSubmitForm(t, "", 3, true)
		req := httptest.NewRequest(http.MethodPost, PathLaunches, body)
		req.Header.Set("Content-Type", contentType)
		status, respBody, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusBadRequest))
		Expect(respBody).To(ContainSubstring(`"code":"common.bad_param"`))
	})

	t.Run("launch json part is validated", func(t *testing.T) {
		body, contentType := buildSubmitForm(t, `{"title": ""}`, 3, true)
		req := httptest.NewRequest(http.MethodPost, PathLaunches, body)
		req.Header.Set("Content-Type", contentType)
		status, respBody, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusBadRequest))
		Expect(respBody).To(ContainSubstring(`"code":"common.bad_param"`))
	})
}

func TestHandleBrowseLaunches(t *testing.T) {
	RegisterTestingT(t)

	router := gin.Default()
	router.Use(bizerror.ErrorHandling())
	RegisterLaunchesRestAPI(router)

	t.Run("browse with filters", func(t *testing.T) {
		search.SearchLaunchesFunc = func(q launch.LaunchQuery, s *session.Session) ([]launch.Launch, error) {
			Expect(q.Tag).To(Equal("go"))
			Expect(q.Service).To(Equal("development"))
			Expect(q.Text).To(Equal("pilot"))
			return []launch.Launch{{ID: 1, Title: "TaskPilot"}}, nil
		}
		req := httptest.NewRequest(http.MethodGet, PathLaunches+"?tag=go&service=development&text=pilot", nil)
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(ContainSubstring(`"total":1`))
		Expect(body).To(ContainSubstring(`"title":"TaskPilot"`))
	})
}

func TestHandleDetailLaunch(t *testing.T) {
	RegisterTestingT(t)

	router := gin.Default()
	router.Use(bizerror.ErrorHandling())
	RegisterLaunchesRestAPI(router)

	t.Run("detail successfully", func(t *testing.T) {
		launch.DetailLaunchFunc = func(id types.ID, s *session.Session) (*launch.Launch, error) {
			Expect(id).To(Equal(types.ID(123)))
			return &launch.Launch{ID: id, Title: "TaskPilot"}, nil
		}
		req := httptest.NewRequest(http.MethodGet, PathLaunches+"/123", nil)
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(ContainSubstring(`"title":"TaskPilot"`))
	})

	t.Run("hidden launches respond 403", func(t *testing.T) {
		launch.DetailLaunchFunc = func(id types.ID, s *session.Session) (*launch.Launch, error) {
			return nil, bizerror.ErrForbidden
		}
		req := httptest.NewRequest(http.MethodGet, PathLaunches+"/123", nil)
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusForbidden))
		Expect(body).To(MatchJSON(`{"code":"security.forbidden", "message":"access forbidden", "data":null}`))
	})
}

func TestHandleCancelLaunch(t *testing.T) {
	RegisterTestingT(t)

	router := gin.Default()
	router.Use(bizerror.ErrorHandling())
	RegisterLaunchesRestAPI(router)

	t.Run("cancel conflicts map to 409", func(t *testing.T) {
		launch.CancelLaunchFunc = func(id types.ID, s *session.Session) (*launch.Launch, error) {
			return nil, bizerror.ErrLaunchNotOpen
		}
		req := httptest.NewRequest(http.MethodPost, PathLaunches+"/123/cancellations", nil)
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusConflict))
		Expect(body).To(MatchJSON(`{"code":"launch.not_open", "message":"launch is not open", "data":null}`))
	})

	t.Run("cancel successfully", func(t *testing.T) {
		launch.CancelLaunchFunc = func(id types.ID, s *session.Session) (*launch.Launch, error) {
			return &launch.Launch{ID: id, Status: launch.StatusCancelled}, nil
		}
		req := httptest.NewRequest(http.MethodPost, PathLaunches+"/123/cancellations", nil)
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(ContainSubstring(`"status":"cancelled"`))
	})
}
