package plantypes

// Reserved column names, present on every level table.
const (
	ColumnID        = "id"
	ColumnType      = "type"
	ColCurrentID    = "internal:current_id"
	ColParentID     = "internal:parent_id"
	ColGDALVSI      = "internal:gdal_vsi"
	ColRelativePath = "internal:relative_path"
	ColOffset       = "internal:offset"
	ColSize         = "internal:size"
	ColSourcePath   = "internal:source_path"
	ColSourceFile   = "internal:source_file"
)

// Sample types, the two values "type" may hold.
const (
	SampleTypeFile   = "FILE"
	SampleTypeFolder = "FOLDER"
)

// On-disk folder layout.
const (
	FolderCollectionFilename = "COLLECTION.json"
	FolderDataDir            = "DATA"
	FolderMetadataDir        = "METADATA"
	FolderMetaFilename       = "__meta__"
	LevelParquetTemplate     = "level%d.parquet"
	TempFolderTemplate       = ".%s_temp"
)

// COLLECTION.json keys this system writes or updates.
const (
	PitSchemaKey   = "taco:pit_schema"
	FieldSchemaKey = "taco:field_schema"
	SubsetOfKey    = "taco:subset_of"
	SubsetDateKey  = "taco:subset_date"
)

// VSISubfilePrefix is the GDAL VSI prefix that may precede a byte-range
// location string.
const VSISubfilePrefix = "/vsisubfile/"

// TacozipExtensions lists the file suffixes that select the archive
// ("zip") output format when auto-detecting from an output path.
var TacozipExtensions = []string{".zip", ".tacozip"}

// ZipOnlyColumns are present only in archive-form level tables.
var ZipOnlyColumns = []string{ColOffset, ColSize}

// ConcatColumns are added during concat operations to track provenance.
var ConcatColumns = []string{ColSourcePath, ColSourceFile}

// ExportStripColumns is the default column set stripped from every level
// table written to FOLDER form, whether the source was an archive, a
// concat, or both.
var ExportStripColumns = append(append([]string{}, ZipOnlyColumns...), ConcatColumns...)
