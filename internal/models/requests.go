package models

import "strings"

// Create requests carry `validate` tags checked by internal/validation before
// any write. Patches carry one pointer per updatable field: nil means "leave
// unchanged". Normalize turns blank strings into nil so that an empty value
// in the request body counts as absent.

type CreateUserRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Role     string `json:"role" validate:"required,oneof=admin project_manager employee"`
}

func (r *CreateUserRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

type UserPatch struct {
	Name     *string `json:"name" validate:"omitempty,max=255"`
	Email    *string `json:"email" validate:"omitempty,email,max=255"`
	Password *string `json:"password" validate:"omitempty,min=6,max=72"`
	Role     *string `json:"role" validate:"omitempty,oneof=admin project_manager employee"`
}

func (p *UserPatch) Normalize() {
	p.Name = blankToNil(p.Name)
	p.Email = blankToNil(p.Email)
	if p.Email != nil {
		lower := strings.ToLower(*p.Email)
		p.Email = &lower
	}
	p.Password = blankToNil(p.Password)
	p.Role = blankToNil(p.Role)
}

func (p UserPatch) IsEmpty() bool {
	return p.Name == nil && p.Email == nil && p.Password == nil && p.Role == nil
}

type CreateProjectRequest struct {
	Name             string  `json:"name" validate:"required,max=255"`
	Description      *string `json:"description"`
	StartDate        *Date   `json:"start_date" validate:"required"`
	EndDate          *Date   `json:"end_date"`
	ProjectManagerID *ID     `json:"project_manager_id" validate:"omitempty,gt=0"`
	Status           string  `json:"status" validate:"omitempty,oneof=planning active on_hold completed cancelled"`
}

func (r *CreateProjectRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Description = blankToNil(r.Description)
	r.StartDate = zeroDateToNil(r.StartDate)
	r.EndDate = zeroDateToNil(r.EndDate)
	r.ProjectManagerID = zeroIDToNil(r.ProjectManagerID)
	if r.Status == "" {
		r.Status = ProjectActive
	}
}

type ProjectPatch struct {
	Name             *string `json:"name" validate:"omitempty,max=255"`
	Description      *string `json:"description"`
	StartDate        *Date   `json:"start_date"`
	EndDate          *Date   `json:"end_date"`
	ProjectManagerID *ID     `json:"project_manager_id" validate:"omitempty,gt=0"`
	Status           *string `json:"status" validate:"omitempty,oneof=planning active on_hold completed cancelled"`
}

func (p *ProjectPatch) Normalize() {
	p.Name = blankToNil(p.Name)
	p.Description = blankToNil(p.Description)
	p.StartDate = zeroDateToNil(p.StartDate)
	p.EndDate = zeroDateToNil(p.EndDate)
	p.ProjectManagerID = zeroIDToNil(p.ProjectManagerID)
	p.Status = blankToNil(p.Status)
}

func (p ProjectPatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.StartDate == nil &&
		p.EndDate == nil && p.ProjectManagerID == nil && p.Status == nil
}

type CreateInventoryRequest struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Description *string `json:"description"`
	Quantity    *int    `json:"quantity" validate:"required,gte=0"`
	Unit        *string `json:"unit" validate:"omitempty,max=50"`
	Category    *string `json:"category" validate:"omitempty,max=100"`
}

func (r *CreateInventoryRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Description = blankToNil(r.Description)
	r.Unit = blankToNil(r.Unit)
	r.Category = blankToNil(r.Category)
}

type InventoryPatch struct {
	Name        *string `json:"name" validate:"omitempty,max=255"`
	Description *string `json:"description"`
	Quantity    *int    `json:"quantity" validate:"omitempty,gte=0"`
	Unit        *string `json:"unit" validate:"omitempty,max=50"`
	Category    *string `json:"category" validate:"omitempty,max=100"`
}

func (p *InventoryPatch) Normalize() {
	p.Name = blankToNil(p.Name)
	p.Description = blankToNil(p.Description)
	p.Unit = blankToNil(p.Unit)
	p.Category = blankToNil(p.Category)
}

func (p InventoryPatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.Quantity == nil && p.Unit == nil && p.Category == nil
}

type CreateMaterialRequest struct {
	ProjectID   ID      `json:"project_id" validate:"required,gt=0"`
	InventoryID ID      `json:"inventory_id" validate:"required,gt=0"`
	Quantity    int     `json:"quantity" validate:"required,gt=0"`
	Notes       *string `json:"notes"`
}

func (r *CreateMaterialRequest) Normalize() {
	r.Notes = blankToNil(r.Notes)
}

type MaterialRequestPatch struct {
	Status   *string `json:"status" validate:"omitempty,oneof=pending approved rejected fulfilled"`
	Quantity *int    `json:"quantity" validate:"omitempty,gt=0"`
	Notes    *string `json:"notes"`
}

func (p *MaterialRequestPatch) Normalize() {
	p.Status = blankToNil(p.Status)
	p.Notes = blankToNil(p.Notes)
}

func (p MaterialRequestPatch) IsEmpty() bool {
	return p.Status == nil && p.Quantity == nil && p.Notes == nil
}

type CreateTaskRequest struct {
	Title       string  `json:"title" validate:"required,max=255"`
	Description *string `json:"description"`
	ProjectID   ID      `json:"project_id" validate:"required,gt=0"`
	EmployeeID  ID      `json:"employee_id" validate:"required,gt=0"`
	DueDate     *Date   `json:"due_date"`
	Status      string  `json:"status" validate:"omitempty,oneof=pending in_progress completed cancelled"`
}

func (r *CreateTaskRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = blankToNil(r.Description)
	r.DueDate = zeroDateToNil(r.DueDate)
	if r.Status == "" {
		r.Status = TaskPending
	}
}

type TaskPatch struct {
	Title       *string `json:"title" validate:"omitempty,max=255"`
	Description *string `json:"description"`
	ProjectID   *ID     `json:"project_id" validate:"omitempty,gt=0"`
	EmployeeID  *ID     `json:"employee_id" validate:"omitempty,gt=0"`
	DueDate     *Date   `json:"due_date"`
	Status      *string `json:"status" validate:"omitempty,oneof=pending in_progress completed cancelled"`
}

func (p *TaskPatch) Normalize() {
	p.Title = blankToNil(p.Title)
	p.Description = blankToNil(p.Description)
	p.ProjectID = zeroIDToNil(p.ProjectID)
	p.EmployeeID = zeroIDToNil(p.EmployeeID)
	p.DueDate = zeroDateToNil(p.DueDate)
	p.Status = blankToNil(p.Status)
}

func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.ProjectID == nil &&
		p.EmployeeID == nil && p.DueDate == nil && p.Status == nil
}

// TaskStatusUpdate is the only change an employee may make to a task.
type TaskStatusUpdate struct {
	Status string `json:"status" validate:"required,oneof=pending in_progress completed cancelled"`
}

func (r *TaskStatusUpdate) Normalize() {
	r.Status = strings.TrimSpace(r.Status)
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func blankToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}
