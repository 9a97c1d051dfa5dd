package model

import "time"

// DomainObject is the closed set of typed rows a Node can wrap.
// Projection handlers assert the concrete type they expect.
type DomainObject interface {
	isDomainObject()
}

// Unit is an organizational unit, the top hierarchy level.
type Unit struct {
	ID           int64
	Name         string
	Abbreviation string
	ARKPrefix    string
}

// Project groups subjects and items under a unit.
type Project struct {
	ID          int64
	Name        string
	Description string
}

// Subject is a physical object being digitized.
type Subject struct {
	ID     int64
	UnitID int64
	Name   string
}

// Item is one digitization target derived from a subject.
type Item struct {
	ID            int64
	Name          string
	EntireSubject bool
}

// CaptureData is a set of raw capture output.
type CaptureData struct {
	ID              int64
	Name            string
	CaptureMethodID int64
	Captured        time.Time
	Description     string
}

// CaptureDataPhoto is the photogrammetry sub-record of a capture set.
type CaptureDataPhoto struct {
	ID                     int64
	CaptureDataID          int64
	DatasetTypeID          int64
	PositionTypeID         int64
	FocusTypeID            int64
	LightSourceTypeID      int64
	BackgroundRemovalID    int64
	ClusterTypeID          int64
	ClusterGeometryFieldID int64
	CameraSettingsUniform  bool
}

// Model is a processed 3D model.
type Model struct {
	ID               int64
	Name             string
	CreationMethodID int64
	ModalityID       int64
	UnitsID          int64
	PurposeID        int64
	FileTypeID       int64
	Created          time.Time
}

// Scene is an authored presentation scene.
type Scene struct {
	ID         int64
	Name       string
	EdanUUID   string
	IsOriented bool
	HasBeenQCd bool
}

// IntermediaryFile is a working file produced mid-pipeline.
type IntermediaryFile struct {
	ID      int64
	Created time.Time
}

// ProjectDocumentation is narrative documentation attached to a project.
type ProjectDocumentation struct {
	ID          int64
	Name        string
	Description string
}

// Asset is a stored file tracked by the repository.
type Asset struct {
	ID          int64
	FileName    string
	AssetTypeID int64
}

// AssetVersion is one immutable version of an asset.
type AssetVersion struct {
	ID          int64
	AssetID     int64
	FileName    string
	Creator     string
	Version     int64
	StorageSize int64
	Ingested    bool
	Created     time.Time
}

// Actor is a person or organization credited on objects.
type Actor struct {
	ID               int64
	IndividualName   string
	OrganizationName string
}

// Stakeholder is a contact with an interest in a project.
type Stakeholder struct {
	ID                int64
	IndividualName    string
	OrganizationName  string
	EmailAddress      string
	PhoneNumberOffice string
}

func (Unit) isDomainObject()                 {}
func (Project) isDomainObject()              {}
func (Subject) isDomainObject()              {}
func (Item) isDomainObject()                 {}
func (CaptureData) isDomainObject()          {}
func (Model) isDomainObject()                {}
func (Scene) isDomainObject()                {}
func (IntermediaryFile) isDomainObject()     {}
func (ProjectDocumentation) isDomainObject() {}
func (Asset) isDomainObject()                {}
func (AssetVersion) isDomainObject()         {}
func (Actor) isDomainObject()                {}
func (Stakeholder) isDomainObject()          {}
