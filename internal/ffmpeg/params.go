package ffmpeg

import "time"

// SnapshotParams describes a single-frame capture.
type SnapshotParams struct {
	Binary string // ffmpeg executable, DefaultBinary when empty

	// Input
	Demuxer     string // v4l2, dshow, avfoundation
	Device      string // /dev/video0, video=USB Camera, 0
	PixelFormat string // yuyv422, mjpeg (-input_format)
	Resolution  string // 1280x720
	Options     []OptionType

	// Output
	OutputDir string
	Prefix    string
	Extension string    // jpg, png, bmp
	Timestamp time.Time // stamped into the file name
}

// TimestampLayout is the file name timestamp, yyyyMMdd_HHmmss.
const TimestampLayout = "20060102_150405"
