package httpapi

import (
	"io"
	"net/http"
	"strings"

	"voice-campaigns/internal/contacts"

	"github.com/gin-gonic/gin"
)

const maxUploadBytes = 10 << 20

func (h Handlers) ListContactLists(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"lists": h.Contacts.Lists()})
}

func (h Handlers) GetContactList(c *gin.Context) {
	l, err := h.Contacts.Get(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

// ImportContacts accepts a multipart upload (file + name) or a raw CSV body with ?name=.
func (h Handlers) ImportContacts(c *gin.Context) {
	var (
		body io.Reader
		name string
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("file")
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "file is required"})
			return
		}
		if fh.Size > maxUploadBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
			return
		}
		f, err := fh.Open()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unreadable file"})
			return
		}
		defer f.Close()
		body = f
		name = c.PostForm("name")
	} else {
		body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
		name = c.Query("name")
	}

	l, err := h.Contacts.Import(c.Request.Context(), body, name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, l)
}

func (h Handlers) AddContact(c *gin.Context) {
	var req contacts.AddContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	l, ct, err := h.Contacts.AddContact(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"list": l.Summary(), "contact": ct})
}

func (h Handlers) UpdateContact(c *gin.Context) {
	var u contacts.ContactUpdate
	if err := c.ShouldBindJSON(&u); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	ct, err := h.Contacts.UpdateContact(c.Request.Context(), c.Param("id"), c.Param("contactId"), u)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ct)
}

func (h Handlers) DeleteContact(c *gin.Context) {
	if err := h.Contacts.DeleteContact(c.Request.Context(), c.Param("id"), c.Param("contactId")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h Handlers) DeleteContactList(c *gin.Context) {
	if err := h.Contacts.DeleteList(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h Handlers) ExportContactList(c *gin.Context) {
	filename, body, err := h.Contacts.Export(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", body)
}

func (h Handlers) ContactTemplate(c *gin.Context) {
	c.Header("Content-Disposition", `attachment; filename="`+contacts.TemplateFilename+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", contacts.Template())
}
