package docs

// Field names for the object index. Common fields are carried by every
// document; the rest are added by the per-type handlers.
const (
	FieldCommonName        = "CommonName"
	FieldRetired           = "Retired"
	FieldObjectType        = "ObjectType"
	FieldObjectTypeID      = "ObjectTypeID"
	FieldObjectID          = "idObject"
	FieldIdentifier        = "Identifier"
	FieldHierarchyParent   = "HierarchyParentID"
	FieldHierarchyChildren = "HierarchyChildrenID"
	FieldHierarchyAncestor = "HierarchyAncestorID"

	FieldUnitID    = "UnitID"
	FieldUnit      = "Unit"
	FieldProjectID = "ProjectID"
	FieldProject   = "Project"
	FieldSubjectID = "SubjectID"
	FieldSubject   = "Subject"
	FieldItemID    = "ItemID"
	FieldItem      = "Item"

	FieldChildrenObjectTypes    = "ChildrenObjectTypes"
	FieldChildrenCaptureMethods = "ChildrenCaptureMethods"
	FieldChildrenVariantTypes   = "ChildrenVariantTypes"
	FieldChildrenModelPurposes  = "ChildrenModelPurposes"
	FieldChildrenModelFileTypes = "ChildrenModelFileTypes"
	FieldChildrenDateCreated    = "ChildrenDateCreated"
)

// Type-specific field names.
const (
	FieldUnitAbbreviation = "UnitAbbreviation"
	FieldUnitARKPrefix    = "UnitARKPrefix"

	FieldProjectDescription = "ProjectDescription"

	FieldSubjectIdentifierPreferred = "SubjectIdentifierPreferred"

	FieldItemEntireSubject = "ItemEntireSubject"

	FieldCaptureDataCaptureMethod           = "CaptureDataCaptureMethod"
	FieldCaptureDataDatasetType             = "CaptureDataDatasetType"
	FieldCaptureDataPositionType            = "CaptureDataPositionType"
	FieldCaptureDataFocusType               = "CaptureDataFocusType"
	FieldCaptureDataLightSourceType         = "CaptureDataLightSourceType"
	FieldCaptureDataBackgroundRemovalMethod = "CaptureDataBackgroundRemovalMethod"
	FieldCaptureDataClusterType             = "CaptureDataClusterType"
	FieldCaptureDataClusterGeometryField    = "CaptureDataClusterGeometryFieldID"
	FieldCaptureDataCameraSettingsUniform   = "CaptureDataCameraSettingsUniform"
	FieldCaptureDataVariantType             = "CaptureDataVariantType"

	FieldModelCreationMethod = "ModelCreationMethod"
	FieldModelModality       = "ModelModality"
	FieldModelUnits          = "ModelUnits"
	FieldModelPurpose        = "ModelPurpose"
	FieldModelFileType       = "ModelFileType"
	FieldModelDateCreated    = "ModelDateCreated"

	FieldSceneEdanUUID   = "SceneEdanUUID"
	FieldSceneIsOriented = "SceneIsOriented"
	FieldSceneHasBeenQCd = "SceneHasBeenQCd"

	FieldIntermediaryFileDateCreated = "IntermediaryFileDateCreated"

	FieldProjectDocumentationDescription = "ProjectDocumentationDescription"

	FieldAssetFileName = "AssetFileName"
	FieldAssetType     = "AssetType"

	FieldAssetVersionFileName    = "AssetVersionFileName"
	FieldAssetVersionCreator     = "AssetVersionCreator"
	FieldAssetVersionVersion     = "AssetVersionVersion"
	FieldAssetVersionStorageSize = "AssetVersionStorageSize"
	FieldAssetVersionIngested    = "AssetVersionIngested"
	FieldAssetVersionDateCreated = "AssetVersionDateCreated"

	FieldActorOrganizationName = "ActorOrganizationName"

	FieldStakeholderOrganizationName = "StakeholderOrganizationName"
	FieldStakeholderEmailAddress     = "StakeholderEmailAddress"
	FieldStakeholderPhoneNumber      = "StakeholderPhoneNumberOffice"
)

// MetadataFieldSuffix is appended to lower-cased metadata names to form
// the metadata index field key.
const MetadataFieldSuffix = "_v"
