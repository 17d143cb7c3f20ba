package handlers

import (
	"net/http"
	"runtime"

	"github.com/fundops/fundledger/internal/buildinfo"
	"github.com/gin-gonic/gin"
)

// VersionHandler reports the running build.
type VersionHandler struct{}

// NewVersionHandler constructs a VersionHandler.
func NewVersionHandler() *VersionHandler {
	return &VersionHandler{}
}

// VersionResponse is the response for the version endpoint.
type VersionResponse struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
	GoVersion string `json:"go_version"`
}

// GetVersion returns the build metadata stamped into the binary.
func (h *VersionHandler) GetVersion(c *gin.Context) {
	c.JSON(http.StatusOK, VersionResponse{
		Version:   buildinfo.Version,
		Commit:    buildinfo.Commit,
		BuildDate: buildinfo.BuildDate,
		GoVersion: runtime.Version(),
	})
}
