package ui

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/opd-ai/bookwriter/srv/generator"
	bookwriter "github.com/opd-ai/bookwriter/src"
)

// DownloadFilename is the name offered for the compiled book.
const DownloadFilename = "GeneratedBook.pdf"

type pageData struct {
	Workflow *generator.Session
	Messages []Message
	Error    string
	MaxPages int
}

func (d pageData) HasOutline() bool  { return d.Workflow.Stage.AtLeast(generator.StageOutlineProposed) }
func (d pageData) HasHeadings() bool { return d.Workflow.Stage.AtLeast(generator.StageOutlineConfirmed) }
func (d pageData) HasChapters() bool { return d.Workflow.Stage.AtLeast(generator.StageChaptersGenerated) }
func (d pageData) HasDocument() bool { return len(d.Workflow.Document) > 0 }

func (ui *GeneratorUI) render(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := ui.templates.ExecuteTemplate(w, name, data); err != nil {
		ui.logger.Error("rendering template", "template", name, "err", err)
	}
}

func (ui *GeneratorUI) renderPage(w http.ResponseWriter, status int, st *State, errMsg string) {
	ui.render(w, status, "page.html", pageData{
		Workflow: st.Workflow,
		Messages: st.History.GetMessages(),
		Error:    errMsg,
		MaxPages: generator.MaxPages,
	})
}

func handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
	})
}

func (ui *GeneratorUI) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if stateFrom(r).Authenticated {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	ui.render(w, http.StatusOK, "login.html", map[string]string{})
}

func (ui *GeneratorUI) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}
	st := stateFrom(r)
	given := r.FormValue("password")
	if ui.password == "" || subtle.ConstantTimeCompare([]byte(given), []byte(ui.password)) != 1 {
		ui.logger.Warn("failed login", "remote", r.RemoteAddr)
		ui.render(w, http.StatusUnauthorized, "login.html", map[string]string{"Error": "Invalid password"})
		return
	}

	// Rotate the session ID on login.
	fresh := newState(newSessionID())
	fresh.Authenticated = true
	if err := ui.save(r, fresh); err != nil {
		http.Error(w, "Failed to save session", http.StatusInternalServerError)
		return
	}
	_ = ui.store.Delete(r.Context(), st.ID)
	ui.setSessionCookie(w, r, fresh.ID)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (ui *GeneratorUI) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := ui.store.Delete(r.Context(), stateFrom(r).ID); err != nil {
		ui.logger.Error("deleting session", "err", err)
	}
	clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (ui *GeneratorUI) handleHome(w http.ResponseWriter, r *http.Request) {
	ui.renderPage(w, http.StatusOK, stateFrom(r), "")
}

// finish saves the state and either redirects home or, when err is set,
// renders the page with the error and a status matching its kind. The
// session keeps whatever the controller committed before failing.
func (ui *GeneratorUI) finish(w http.ResponseWriter, r *http.Request, st *State, err error) {
	if err != nil {
		st.History.AddMessage("error", err.Error())
	}
	if saveErr := ui.save(r, st); saveErr != nil {
		http.Error(w, "Failed to save session", http.StatusInternalServerError)
		return
	}
	if err == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	status := http.StatusInternalServerError
	var stageErr *generator.StageError
	switch {
	case errors.Is(err, generator.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, generator.ErrWrongStage):
		status = http.StatusConflict
	case errors.Is(err, generator.ErrChapterIndex):
		status = http.StatusNotFound
	case errors.As(err, &stageErr):
		status = http.StatusBadGateway
	}
	ui.renderPage(w, status, st, err.Error())
}

// handleConfigure starts a book from the submitted premise and page count.
//
// Form fields:
//   - premise: short description of the book
//   - pages: approximate page count, 1 to generator.MaxPages
//
// A new configuration discards the outline, chapters and document of any
// earlier one. The outline request blocks until the completion service
// answers.
func (ui *GeneratorUI) handleConfigure(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}
	st := stateFrom(r)
	pages, err := strconv.Atoi(strings.TrimSpace(r.FormValue("pages")))
	if err != nil {
		ui.finish(w, r, st, fmt.Errorf("%w: page count must be a number", generator.ErrInvalidInput))
		return
	}
	req := bookwriter.BookRequest{Premise: r.FormValue("premise"), DesiredPages: pages}
	err = ui.controller.Configure(r.Context(), st.Workflow, req)
	if err == nil {
		st.History.AddMessage("info", fmt.Sprintf("Outline proposed with %d chapters of about %d words",
			st.Workflow.Plan.ChapterCount, st.Workflow.Plan.WordsPerChapter))
	}
	ui.finish(w, r, st, err)
}

func (ui *GeneratorUI) handleEditOutline(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}
	st := stateFrom(r)
	ui.finish(w, r, st, ui.controller.EditOutline(st.Workflow, textareaValue(r.PostFormValue("outline"))))
}

// handleConfirm applies the submitted outline text, if any, and confirms it.
func (ui *GeneratorUI) handleConfirm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}
	st := stateFrom(r)
	if _, ok := r.PostForm["outline"]; ok {
		if err := ui.controller.EditOutline(st.Workflow, textareaValue(r.PostFormValue("outline"))); err != nil {
			ui.finish(w, r, st, err)
			return
		}
	}
	err := ui.controller.ConfirmOutline(st.Workflow)
	if err == nil {
		st.History.AddMessage("info", "Outline confirmed! Generate chapters next.")
	}
	ui.finish(w, r, st, err)
}

func (ui *GeneratorUI) handleGenerate(w http.ResponseWriter, r *http.Request) {
	st := stateFrom(r)
	err := ui.controller.GenerateAll(r.Context(), st.Workflow, st.History)
	if err == nil {
		st.History.AddMessage("info", "Chapters generated! You can now edit them below.")
	}
	ui.finish(w, r, st, err)
}

// applyChapterEdits copies every "chapter-N" form field into chapter N.
func (ui *GeneratorUI) applyChapterEdits(r *http.Request, st *State) error {
	for i := range st.Workflow.Chapters {
		values, ok := r.PostForm[fmt.Sprintf("chapter-%d", i)]
		if !ok || len(values) == 0 {
			continue
		}
		text := textareaValue(values[0])
		if text == st.Workflow.Chapters[i].Text {
			continue
		}
		if err := ui.controller.EditChapter(st.Workflow, i, text); err != nil {
			return err
		}
	}
	return nil
}

func (ui *GeneratorUI) handleEditChapters(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}
	st := stateFrom(r)
	ui.finish(w, r, st, ui.applyChapterEdits(r, st))
}

func (ui *GeneratorUI) handleEditChapter(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}
	st := stateFrom(r)
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		ui.finish(w, r, st, fmt.Errorf("%w: %q", generator.ErrChapterIndex, chi.URLParam(r, "index")))
		return
	}
	ui.finish(w, r, st, ui.controller.EditChapter(st.Workflow, index, textareaValue(r.PostFormValue("text"))))
}

// handleCompile saves any chapter edits submitted with the form and then
// rebuilds the document from all chapters.
func (ui *GeneratorUI) handleCompile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}
	st := stateFrom(r)
	if err := ui.applyChapterEdits(r, st); err != nil {
		ui.finish(w, r, st, err)
		return
	}
	err := ui.controller.Compile(st.Workflow)
	if err == nil {
		st.History.AddMessage("info", fmt.Sprintf("PDF generated: %d pages", st.Workflow.PageCount))
	}
	ui.finish(w, r, st, err)
}

func (ui *GeneratorUI) handleDownload(w http.ResponseWriter, r *http.Request) {
	doc := stateFrom(r).Workflow.Document
	if len(doc) == 0 {
		http.Error(w, "No compiled document yet", http.StatusConflict)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, DownloadFilename))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc)))
	w.Write(doc)
}
