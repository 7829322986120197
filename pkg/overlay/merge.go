// Package overlay writes and merges append files: the per-layer files that
// add source files, install steps and variable tweaks to a recipe without
// touching the recipe itself.
//
// Merging is split in two phases. PlanMerge is pure and computes the new
// file content and the files to copy. Apply performs the writes.
package overlay

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/fulmenhq/recipeneat/pkg/datastore"
	"github.com/fulmenhq/recipeneat/pkg/format/finalizer"
	"github.com/fulmenhq/recipeneat/pkg/logger"
	"github.com/fulmenhq/recipeneat/pkg/recipe"
	"github.com/fulmenhq/recipeneat/pkg/safeio"
)

// State is the outcome of merging into one append file.
type State int

const (
	// Unchanged means the file was left as it was (or nothing needed writing).
	Unchanged State = iota
	// Created means the file did not exist and was written.
	Created
	// Updated means an existing file was rewritten.
	Updated
)

// String returns the name of the state
func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Updated:
		return "updated"
	default:
		return "unchanged"
	}
}

// InstallSpec asks for a source file to be installed by the append file.
// Dest is the target path without the ${D} prefix; Mode is an octal
// permission string such as "0644".
type InstallSpec struct {
	Dest string
	Mode string
}

// Request describes the changes to make in a recipe's append file.
type Request struct {
	// Store is the recipe's datastore; FILE, PN and SRC_URI are read from it.
	Store        datastore.Store
	DestLayerDir string
	// SrcFiles maps a file to add to its name in SRC_URI, or "" when it is
	// not referenced yet and should be added.
	SrcFiles map[string]string
	// Install is keyed by SrcFiles entries.
	Install         map[string]InstallSpec
	WildcardVersion bool
	// Machine makes the changes specific to one machine.
	Machine    string
	ExtraLines []PendingLine
	// RemoveValues lists values to take out of a variable's list.
	RemoveValues map[string][]string
}

// CopyOp is one file to copy next to the append file.
type CopyOp struct {
	Src string
	Dst string
}

// MergePlan is the computed outcome of a Request against one append file.
type MergePlan struct {
	AppendPath string
	// FilesDir is the directory files are copied to.
	FilesDir string
	State    State
	// Content is the new file content; nil when State is Unchanged.
	Content []byte
	Copies  []CopyOp
}

// Result reports what Write did.
type Result struct {
	AppendPath string
	FilesDir   string
	State      State
	// PathOK is false when the destination layer does not pick up the
	// append file at its chosen location.
	PathOK bool
	Copied []string
}

type mergeKind int

const (
	kindKeep mergeKind = iota
	kindListAppend
	kindSingleReplace
	kindFuncUnion
	kindPathOverride
	kindMachineOverride
)

func classifyMerge(name, machine string) mergeKind {
	switch {
	case name == "FILESEXTRAPATHS_prepend":
		return kindPathOverride
	case name == "PACKAGE_ARCH":
		if machine == "" {
			return kindKeep
		}
		return kindMachineOverride
	case strings.HasPrefix(name, "do_install_append"):
		return kindFuncUnion
	case name == "SRC_URI" || name == "SRC_URI_append"+machineOverride(machine):
		return kindListAppend
	default:
		return kindSingleReplace
	}
}

func machineOverride(machine string) string {
	if machine == "" {
		return ""
	}
	return "_" + machine
}

// buildPending turns a request into the ordered list of lines to merge and
// the files to copy (new file to its name in SRC_URI).
func buildPending(req Request) (pendingList, map[string]string) {
	pending := make(pendingList, 0, len(req.ExtraLines))
	for _, p := range req.ExtraLines {
		if !p.IsFunc() && classifyMerge(p.Name, req.Machine) == kindListAppend {
			pending.appendValue(p.Name, p.Op, p.Value)
			continue
		}
		pending = append(pending, p)
	}
	override := machineOverride(req.Machine)
	if len(req.SrcFiles) > 0 {
		pending = append(pending, PendingLine{Name: "FILESEXTRAPATHS_prepend", Op: ":=", Value: "${THISDIR}/${PN}:"})
	}
	if req.Machine != "" {
		pending = append(pending, PendingLine{Name: "PACKAGE_ARCH", Op: "=", Value: "${MACHINE_ARCH}"})
	}

	srcURI := strings.Fields(datastore.GetString(req.Store, "SRC_URI"))
	copies := make(map[string]string, len(req.SrcFiles))
	var instLines []string
	for _, newFile := range sortedKeys(req.SrcFiles) {
		srcFile := req.SrcFiles[newFile]
		if srcFile == "" {
			srcFile = filepath.Base(newFile)
			entry := "file://" + srcFile
			if !slices.Contains(srcURI, entry) {
				if req.Machine != "" {
					pending.appendValue("SRC_URI_append"+override, "=", " "+entry)
				} else {
					pending.appendValue("SRC_URI", "+=", entry)
				}
			}
		}
		copies[newFile] = srcFile
		inst, ok := req.Install[newFile]
		if !ok {
			continue
		}
		dest := recipe.ReplaceDirVars(inst.Dest, req.Store)
		dirLine := "install -d ${D}" + path.Dir(dest)
		if !slices.Contains(instLines, dirLine) {
			instLines = append(instLines, dirLine)
		}
		instLines = append(instLines, fmt.Sprintf("install -m %s ${WORKDIR}/%s ${D}%s", inst.Mode, path.Base(srcFile), dest))
	}
	if len(instLines) > 0 {
		pending = append(pending, PendingLine{Name: "do_install_append" + override + "()", Body: instLines})
	}
	return pending, copies
}

// merger holds the state of one merge pass over an existing append file.
type merger struct {
	store      datastore.Store
	machine    string
	remove     map[string][]string
	pending    *pendingList
	destSubdir string
}

func (m *merger) edit(a recipe.Assignment) recipe.Replacement {
	kind := classifyMerge(a.Name, m.machine)
	switch kind {
	case kindKeep:
		return recipe.Keep()
	case kindPathOverride:
		if rest, ok := strings.CutPrefix(a.Value, "${THISDIR}/"); ok {
			m.pending.pop(a.Name)
			m.destSubdir = strings.TrimRight(m.store.Expand(rest), ":")
		}
		return recipe.Keep()
	case kindMachineOverride:
		if p, ok := m.pending.pop(a.Name); ok {
			return recipe.Replacement{Value: p.Value}
		}
		return recipe.Keep()
	case kindFuncUnion:
		p, ok := m.pending.pop(a.Name)
		if !ok {
			return recipe.Keep()
		}
		var body []string
		for _, l := range strings.Split(strings.Trim(a.Value, "\n"), "\n") {
			body = append(body, strings.TrimSpace(l))
		}
		added := false
		for _, l := range p.Body {
			if !slices.Contains(body, l) {
				body = append(body, l)
				added = true
			}
		}
		if !added {
			return recipe.Keep()
		}
		return recipe.Replacement{List: true, Items: body, Indent: 4}
	}

	tokens := strings.Fields(a.Value)
	changed := false
	removeVar := a.Name
	if kind == kindListAppend {
		removeVar = "SRC_URI"
		if p, ok := m.pending.pop(a.Name); ok {
			for _, t := range strings.Fields(p.Value) {
				if !slices.Contains(tokens, t) {
					tokens = append(tokens, t)
					changed = true
				}
			}
		}
	} else if p, ok := m.pending.pop(a.Name); ok {
		tokens = []string{p.Value}
		changed = true
	}
	for _, r := range m.remove[removeVar] {
		if i := slices.Index(tokens, r); i >= 0 {
			tokens = slices.Delete(tokens, i, i+1)
			changed = true
		}
	}
	if !changed {
		return recipe.Keep()
	}

	isAppend := strings.Contains(a.Name, "_append")
	if len(tokens) == 0 && (a.Operator == "+=" || a.Operator == ".=" || isAppend) {
		return recipe.Drop()
	}
	if kind == kindSingleReplace && len(tokens) > 1 {
		return recipe.Replacement{List: true, Items: tokens, Indent: -1}
	}
	value := strings.Join(tokens, " ")
	if isAppend && value != "" {
		value = " " + value
	}
	return recipe.Replacement{Value: value}
}

// PlanMerge computes the content of the append file at appendPath after
// applying req. existing is the current content and exists reports whether
// the file is there at all. PlanMerge does no I/O.
func PlanMerge(req Request, appendPath string, existing []byte, exists bool) (*MergePlan, error) {
	if req.Store == nil {
		return nil, fmt.Errorf("%w: no datastore", recipe.ErrInvalidInput)
	}
	pending, copies := buildPending(req)
	destSubdir := datastore.GetString(req.Store, "PN")

	var from, out []string
	updated := false
	if exists {
		from = recipe.SplitLines(string(existing))
		names := make([]string, 0, len(pending)+len(req.RemoveValues))
		for _, p := range pending {
			names = append(names, p.Name)
		}
		for _, name := range sortedKeys(req.RemoveValues) {
			if !slices.Contains(names, name) {
				names = append(names, name)
			}
		}
		m := &merger{
			store:      req.Store,
			machine:    req.Machine,
			remove:     req.RemoveValues,
			pending:    &pending,
			destSubdir: destSubdir,
		}
		updated, out = recipe.EditLines(from, names, m.edit)
		destSubdir = m.destSubdir
	}

	if len(pending) > 0 {
		eol := finalizer.DetectLineEnding(string(existing))
		if n := len(out); n > 0 {
			out[n-1] = finalizer.EnsureTrailingNewline(out[n-1], eol)
		}
		for _, p := range pending {
			out = append(out, p.render(eol)...)
		}
		updated = true
	}

	plan := &MergePlan{AppendPath: appendPath}
	switch {
	case !exists && updated:
		plan.State = Created
	case exists && updated && !slices.Equal(from, out):
		plan.State = Updated
	default:
		plan.State = Unchanged
	}
	if plan.State != Unchanged {
		plan.Content = []byte(strings.Join(out, ""))
	}

	appendDir := filepath.Dir(appendPath)
	if len(copies) > 0 && req.Machine != "" {
		destSubdir = filepath.Join(destSubdir, req.Machine)
	}
	plan.FilesDir = filepath.Join(appendDir, destSubdir)
	for _, newFile := range sortedKeys(copies) {
		dst := filepath.Join(plan.FilesDir, filepath.Base(copies[newFile]))
		if sameFile(newFile, dst) {
			continue
		}
		plan.Copies = append(plan.Copies, CopyOp{Src: newFile, Dst: dst})
	}
	return plan, nil
}

// Apply carries out a plan. The planned files are staged next to their
// destinations first; the append file is only written once every copy has
// succeeded, and the staged files are then moved into place. It returns the
// destinations copied to.
func Apply(ctx context.Context, plan *MergePlan) ([]string, error) {
	if err := os.MkdirAll(filepath.Dir(plan.AppendPath), 0o750); err != nil {
		return nil, fmt.Errorf("%w: %w", recipe.ErrIO, err)
	}

	staged := make([]string, 0, len(plan.Copies))
	defer func() {
		for _, tmp := range staged {
			_ = os.Remove(tmp)
		}
	}()
	for _, c := range plan.Copies {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tmp := stagingPath(c.Dst)
		if err := safeio.CopyFile(c.Src, tmp, false); err != nil {
			return nil, fmt.Errorf("%w: copy %s: %w", recipe.ErrIO, c.Src, err)
		}
		staged = append(staged, tmp)
	}

	if plan.State != Unchanged {
		logger.Info(fmt.Sprintf("Writing append file %s", plan.AppendPath), logger.String("state", plan.State.String()))
		if err := safeio.WriteFileAtomic(plan.AppendPath, plan.Content); err != nil {
			return nil, fmt.Errorf("%w: write %s: %w", recipe.ErrIO, plan.AppendPath, err)
		}
	}

	copied := make([]string, 0, len(plan.Copies))
	for i, c := range plan.Copies {
		logger.Info(fmt.Sprintf("Copying %s to %s", c.Src, c.Dst))
		if err := os.Rename(staged[i], c.Dst); err != nil {
			return copied, fmt.Errorf("%w: copy %s: %w", recipe.ErrIO, c.Src, err)
		}
		copied = append(copied, c.Dst)
	}
	return copied, nil
}

func stagingPath(dst string) string {
	return filepath.Join(filepath.Dir(dst), "."+filepath.Base(dst)+".recipeneat-staged")
}

// Write creates or updates the append file for the recipe in req.Store
// inside req.DestLayerDir and copies the requested files next to it.
func Write(ctx context.Context, req Request) (*Result, error) {
	if req.Store == nil {
		return nil, fmt.Errorf("%w: no datastore", recipe.ErrInvalidInput)
	}
	appendPath, pathOK, err := AppendPath(req.Store, req.DestLayerDir, req.WildcardVersion)
	if err != nil {
		return nil, err
	}
	if !pathOK {
		logger.Warn(fmt.Sprintf("Unable to determine correct subdirectory path for append file; check that %s adds a BBFILES pattern matching .bbappend files. Using %s for now, but the append file will not be applied until this is fixed.",
			filepath.Join(req.DestLayerDir, "conf", "layer.conf"), filepath.Dir(appendPath)))
	}
	if !layerEnabled(req.Store, req.DestLayerDir) {
		logger.Warn("Destination layer is not enabled in BBLAYERS; add it before the append file can take effect",
			logger.String("layer", req.DestLayerDir))
	}

	existing, err := os.ReadFile(appendPath) // #nosec G304 -- path derived from the destination layer
	exists := err == nil
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: read %s: %w", recipe.ErrIO, appendPath, err)
	}

	plan, err := PlanMerge(req, appendPath, existing, exists)
	if err != nil {
		return nil, err
	}
	copied, err := Apply(ctx, plan)
	if err != nil {
		return nil, err
	}
	return &Result{
		AppendPath: appendPath,
		FilesDir:   plan.FilesDir,
		State:      plan.State,
		PathOK:     pathOK,
		Copied:     copied,
	}, nil
}

func layerEnabled(store datastore.Store, layerDir string) bool {
	abs, err := filepath.Abs(layerDir)
	if err != nil {
		return false
	}
	for _, l := range strings.Fields(datastore.GetString(store, "BBLAYERS")) {
		if la, err := filepath.Abs(l); err == nil && la == abs {
			return true
		}
	}
	return false
}

func sameFile(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
