package live

import (
	"strconv"

	"github.com/beevik/etree"
)

// AddGroupTrack synthesizes a collapsed GroupTrack around the member
// tracks, inserted just before the first member. Members are
// re-parented into the group and their audio output rerouted through
// it, which is what makes group solo and mute behave.
func (d *Document) AddGroupTrack(name string, color, groupID int, members []*etree.Element) error {
	tracks := d.Tracks()
	if tracks == nil || len(members) == 0 {
		return &StructuralError{Device: "group", Path: "LiveSet/Tracks"}
	}

	group := etree.NewElement("GroupTrack")
	group.CreateAttr("Id", strconv.Itoa(groupID))

	leaf := func(parent *etree.Element, tag, attr, value string) *etree.Element {
		el := parent.CreateElement(tag)
		el.CreateAttr(attr, value)
		return el
	}

	leaf(group, "LomId", "Value", "0")
	leaf(group, "LomIdView", "Value", "0")
	leaf(group, "IsContentSelectedInDocument", "Value", "false")
	leaf(group, "PreferredContentViewMode", "Value", "0")

	delay := group.CreateElement("TrackDelay")
	leaf(delay, "Value", "Value", "0")
	leaf(delay, "IsValueSampleBased", "Value", "false")

	nameEl := group.CreateElement("Name")
	leaf(nameEl, "EffectiveName", "Value", name)
	leaf(nameEl, "UserName", "Value", name)
	leaf(nameEl, "Annotation", "Value", "")
	leaf(nameEl, "MemorizedFirstClipName", "Value", "")

	leaf(group, "Color", "Value", strconv.Itoa(color))

	group.CreateElement("AutomationEnvelopes").CreateElement("Envelopes")

	leaf(group, "TrackGroupId", "Value", "-1")
	leaf(group, "TrackUnfolded", "Value", "false")
	leaf(group, "DevicesListWrapper", "LomId", "0")
	leaf(group, "ClipSlotsListWrapper", "LomId", "0")
	leaf(group, "ArrangementClipsListWrapper", "LomId", "0")
	leaf(group, "TakeLanesListWrapper", "LomId", "0")
	leaf(group, "ViewData", "Value", "{}")

	takeLanes := group.CreateElement("TakeLanes")
	takeLanes.CreateElement("TakeLanes")
	leaf(takeLanes, "AreTakeLanesFolded", "Value", "true")

	leaf(group, "LinkedTrackGroupId", "Value", "-1")

	slots := group.CreateElement("Slots")
	for i := 0; i < d.sceneCount(); i++ {
		slot := slots.CreateElement("GroupTrackSlot")
		slot.CreateAttr("Id", strconv.Itoa(i))
		leaf(slot, "LomId", "Value", "0")
	}

	leaf(group, "Freeze", "Value", "false")
	leaf(group, "NeedArrangerRefreeze", "Value", "true")

	chain := group.CreateElement("DeviceChain")

	routing := chain.CreateElement("AudioOutputRouting")
	leaf(routing, "Target", "Value", "AudioOut/Main")
	leaf(routing, "UpperDisplayString", "Value", "Main")
	leaf(routing, "LowerDisplayString", "Value", "")

	mixer := chain.CreateElement("Mixer")
	leaf(mixer, "LomId", "Value", "0")
	leaf(mixer, "LomIdView", "Value", "0")

	speaker := mixer.CreateElement("Speaker")
	leaf(speaker, "LomId", "Value", "0")
	leaf(speaker, "Manual", "Value", "true")
	speakerTarget := leaf(speaker, "AutomationTarget", "Id", d.IDs.NextString())
	leaf(speakerTarget, "LockEnvelope", "Value", "0")

	leaf(mixer, "SoloSink", "Value", "false")

	volume := mixer.CreateElement("Volume")
	leaf(volume, "LomId", "Value", "0")
	leaf(volume, "Manual", "Value", "1")
	volumeTarget := leaf(volume, "AutomationTarget", "Id", d.IDs.NextString())
	leaf(volumeTarget, "LockEnvelope", "Value", "0")

	inner := chain.CreateElement("DeviceChain")
	inner.CreateElement("Devices")
	inner.CreateElement("SignalModulations")

	tracks.InsertChildAt(members[0].Index(), group)

	for _, member := range members {
		setValue(member, "TrackGroupId", strconv.Itoa(groupID))
		setValue(member, ".//AudioOutputRouting/Target", "AudioOut/GroupTrack")
		setValue(member, ".//AudioOutputRouting/UpperDisplayString", name)
		setValue(member, ".//AudioOutputRouting/LowerDisplayString", "")
	}
	return nil
}

func (d *Document) sceneCount() int {
	scenes := d.LiveSet().FindElement("Scenes")
	if scenes == nil {
		return 8
	}
	n := len(scenes.ChildElements())
	if n == 0 {
		return 8
	}
	return n
}
