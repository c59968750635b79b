package postprocess

import "fmt"

// DefaultKeypointThreshold is the confidence a keypoint needs to be drawn.
const DefaultKeypointThreshold float32 = 0.35

// Keypoint indexes the seventeen COCO body keypoints.
type Keypoint int

// COCO keypoint indices.
const (
	Nose Keypoint = iota
	RightEye
	LeftEye
	RightEar
	LeftEar
	RightShoulder
	LeftShoulder
	RightElbow
	LeftElbow
	RightWrist
	LeftWrist
	RightHip
	LeftHip
	RightKnee
	LeftKnee
	RightAnkle
	LeftAnkle
)

var keypointNames = [NumKeypoints]string{
	"nose",
	"right_eye",
	"left_eye",
	"right_ear",
	"left_ear",
	"right_shoulder",
	"left_shoulder",
	"right_elbow",
	"left_elbow",
	"right_wrist",
	"left_wrist",
	"right_hip",
	"left_hip",
	"right_knee",
	"left_knee",
	"right_ankle",
	"left_ankle",
}

// String returns the snake_case keypoint name.
func (k Keypoint) String() string {
	if k < 0 || int(k) >= NumKeypoints {
		return fmt.Sprintf("keypoint(%d)", int(k))
	}
	return keypointNames[k]
}

// Limb is one skeleton edge between two keypoints.
type Limb struct {
	From Keypoint
	To   Keypoint
}

// Skeleton lists the edges drawn between keypoints.
var Skeleton = []Limb{
	{Nose, RightEye},
	{Nose, LeftEye},
	{RightEye, RightEar},
	{LeftEye, LeftEar},
	{RightEar, RightShoulder},
	{LeftEar, LeftShoulder},
	{RightShoulder, RightElbow},
	{LeftShoulder, LeftElbow},
	{RightShoulder, RightHip},
	{LeftShoulder, LeftHip},
	{RightElbow, RightWrist},
	{LeftElbow, LeftWrist},
	{RightHip, RightKnee},
	{LeftHip, LeftKnee},
	{RightKnee, RightAnkle},
	{LeftKnee, LeftAnkle},
	{RightShoulder, LeftShoulder},
	{RightHip, LeftHip},
}
