package server

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"hiredesk/pkg/types"
)

// submissionForm carries the text fields of an intake submission. The
// company fields only matter when employmentStatus is "experienced".
type submissionForm struct {
	Role             string `form:"role"`
	Location         string `form:"location"`
	FullName         string `form:"fullName"`
	Email            string `form:"email"`
	Phone            string `form:"phone"`
	Gender           string `form:"gender"`
	FatherName       string `form:"fatherName"`
	FatherPhone      string `form:"fatherPhone"`
	EmploymentStatus string `form:"employmentStatus"`
	CompanyName      string `form:"companyName"`
	CompanyLocation  string `form:"companyLocation"`
	Experience       string `form:"experience"`
}

func (f *submissionForm) complete() bool {
	for _, v := range []string{
		f.Role,
		f.Location,
		f.FullName,
		f.Email,
		f.Phone,
		f.Gender,
		f.FatherName,
		f.FatherPhone,
	} {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

func (f *submissionForm) personalInfo() types.PersonalInfo {
	return types.PersonalInfo{
		FullName:    strings.TrimSpace(f.FullName),
		Email:       strings.TrimSpace(f.Email),
		Phone:       strings.TrimSpace(f.Phone),
		Gender:      strings.TrimSpace(f.Gender),
		FatherName:  strings.TrimSpace(f.FatherName),
		FatherPhone: strings.TrimSpace(f.FatherPhone),
	}
}

func (f *submissionForm) employmentHistory() *types.EmploymentHistory {
	if f.EmploymentStatus != "experienced" {
		return nil
	}

	return &types.EmploymentHistory{
		CompanyName: f.CompanyName,
		Location:    f.CompanyLocation,
		Experience:  f.Experience,
	}
}

var (
	allowedUploadExts = map[string]bool{
		".pdf":  true,
		".jpg":  true,
		".jpeg": true,
		".png":  true,
	}
	allowedUploadMimes = map[string]bool{
		"application/pdf": true,
		"image/jpeg":      true,
		"image/jpg":       true,
		"image/png":       true,
	}
)

// uploadConstraintViolation checks an upload against the type and size
// constraints before anything is written to storage. Returns the client
// error message, or "" when the upload is acceptable. Both the extension
// and the declared MIME type must be on the allowlist.
func uploadConstraintViolation(fh *multipart.FileHeader, maxBytes int64) string {
	if fh.Size > maxBytes {
		return fmt.Sprintf("File %s exceeds the %dMB size limit", fh.Filename, maxBytes/(1<<20))
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	mime := strings.ToLower(strings.TrimSpace(fh.Header.Get("Content-Type")))

	if !allowedUploadExts[ext] || !allowedUploadMimes[mime] {
		return "Only PDF, JPG, and PNG files are allowed!"
	}

	return ""
}
