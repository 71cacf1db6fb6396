package vulkan

import (
	"runtime"
	"strings"
	"unsafe"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vkcube/engine/core"
)

// Window is what the renderer needs from the platform layer.
type Window interface {
	drawableWindow
	RequiredInstanceExtensions() []string
	CreateSurface(instance vk.Instance) (vk.Surface, error)
	GetInstanceProcAddress() unsafe.Pointer
}

// requiredInstanceExtensions lists the instance extensions for the given platform.
func requiredInstanceExtensions(windowExtensions []string, goos string, validation bool) []string {
	extensions := append([]string{}, windowExtensions...)
	if goos == "darwin" {
		extensions = append(extensions,
			portabilityEnumerationExtensionName,
			physicalDeviceProperties2Extension,
		)
	}
	if validation {
		extensions = append(extensions, vk.ExtDebugReportExtensionName)
	}
	return dedupeNames(extensions)
}

func dedupeNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := names[:0]
	for _, n := range names {
		key := vk.ToString([]byte(VulkanSafeString(n)))
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, n)
	}
	return out
}

// containsName compares names without their NUL terminators.
func containsName(available []string, name string) bool {
	name = strings.TrimRight(name, end)
	for _, a := range available {
		if strings.TrimRight(a, end) == name {
			return true
		}
	}
	return false
}

func availableLayerNames() ([]string, error) {
	var count uint32
	if err := vkCheck("vkEnumerateInstanceLayerProperties", vk.EnumerateInstanceLayerProperties(&count, nil)); err != nil {
		return nil, err
	}
	layers := make([]vk.LayerProperties, count)
	if err := vkCheck("vkEnumerateInstanceLayerProperties", vk.EnumerateInstanceLayerProperties(&count, layers)); err != nil {
		return nil, err
	}
	names := make([]string, 0, count)
	for i := range layers[:count] {
		layers[i].Deref()
		names = append(names, vk.ToString(layers[i].LayerName[:]))
	}
	return names, nil
}

func (vr *VulkanRenderer) createInstance() error {
	context := vr.context

	procAddr := vr.window.GetInstanceProcAddress()
	if procAddr == nil {
		return errors.New("GetInstanceProcAddress is nil")
	}
	vk.SetGetInstanceProcAddr(procAddr)
	if err := vk.Init(); err != nil {
		return errors.Wrap(err, "failed to initialize vk")
	}

	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 0, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		EngineVersion:      uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(vr.config.ApplicationName),
		PEngineName:        VulkanSafeString(EngineName),
	}

	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: appInfo,
	}
	if runtime.GOOS == "darwin" {
		createInfo.Flags |= instanceCreateEnumeratePortabilityBit
	}

	// Validation layers should only be enabled on non-release builds.
	var layers []string
	if vr.config.Validation {
		available, err := availableLayerNames()
		if err != nil {
			return err
		}
		if containsName(available, ValidationLayerName) {
			layers = append(layers, ValidationLayerName)
			context.Log.Info("validation layers enabled: %v", layers)
		} else {
			context.Log.Warn("%v, continuing without validation", errors.Wrap(core.ErrValidationLayerMissing, ValidationLayerName))
		}
	}
	createInfo.EnabledLayerCount = uint32(len(layers))
	createInfo.PpEnabledLayerNames = VulkanSafeStrings(layers)
	validation := len(layers) > 0

	extensions := requiredInstanceExtensions(vr.window.RequiredInstanceExtensions(), runtime.GOOS, validation)
	context.Log.Debug("required instance extensions: %v", extensions)
	createInfo.EnabledExtensionCount = uint32(len(extensions))
	createInfo.PpEnabledExtensionNames = VulkanSafeStrings(extensions)

	if err := vkCheck("vkCreateInstance", vk.CreateInstance(&createInfo, context.Allocator, &context.Instance)); err != nil {
		return err
	}
	if err := vk.InitInstance(context.Instance); err != nil {
		return errors.Wrap(err, "failed to load instance functions")
	}
	context.Log.Info("Vulkan instance created.")

	if validation {
		debugCreateInfo := vk.DebugReportCallbackCreateInfo{
			SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
			Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit),
			PfnCallback: vr.debugCallback,
		}
		var dbg vk.DebugReportCallback
		if err := vkCheck("vkCreateDebugReportCallbackEXT", vk.CreateDebugReportCallback(context.Instance, &debugCreateInfo, context.Allocator, &dbg)); err != nil {
			return err
		}
		context.debugCallback = dbg
		context.Log.Debug("Vulkan debugger created.")
	}

	surface, err := vr.window.CreateSurface(context.Instance)
	if err != nil {
		return err
	}
	context.Surface = surface
	context.Log.Debug("Vulkan surface created.")
	return nil
}

func (vr *VulkanRenderer) destroyInstance() {
	context := vr.context
	if context.Surface != vk.NullSurface {
		vk.DestroySurface(context.Instance, context.Surface, context.Allocator)
		context.Surface = vk.NullSurface
	}
	if context.debugCallback != vk.NullDebugReportCallback {
		vk.DestroyDebugReportCallback(context.Instance, context.debugCallback, context.Allocator)
		context.debugCallback = vk.NullDebugReportCallback
	}
	if context.Instance != nil {
		vk.DestroyInstance(context.Instance, context.Allocator)
		context.Instance = nil
	}
}

// debugCallback only logs. It never aborts the call that triggered it.
func (vr *VulkanRenderer) debugCallback(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint64, messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
	log := vr.context.Log
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		log.Error("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		log.Warn("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		log.Warn("PERFORMANCE: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	default:
		log.Debug("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	}
	return vk.Bool32(vk.False)
}
